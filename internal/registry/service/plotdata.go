package service

import (
	"context"

	"landgrid/internal/audit"
	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/requestcontext"
)

// SetPlotData replaces a plot's metadata. While an unexpired rental exists
// only the renter may write; otherwise only the owner may.
func (s *Service) SetPlotData(ctx context.Context, caller domain.AccountID, id domain.PlotID, metadata models.Metadata) error {
	return s.SetPlotDataBatch(ctx, caller, []domain.PlotID{id}, metadata)
}

// SetPlotDataBatch applies the metadata to every listed plot atomically.
func (s *Service) SetPlotDataBatch(ctx context.Context, caller domain.AccountID, ids []domain.PlotID, metadata models.Metadata) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	if len(ids) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one plot id is required")
	}

	return s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireNotPaused(txCtx); err != nil {
			return err
		}
		now := requestcontext.Now(txCtx)

		plots := make([]*models.Plot, 0, len(ids))
		for _, id := range ids {
			p, err := s.getPlot(txCtx, id)
			if err != nil {
				return err
			}
			if renter, rented := p.ActiveRenter(now); rented {
				if caller != renter {
					return dErrors.Newf(dErrors.CodeForbidden, "plot %d is rented, only the renter may set its data", id)
				}
			} else if caller != p.Owner {
				return dErrors.Newf(dErrors.CodeForbidden, "caller may not set data on plot %d", id)
			}
			plots = append(plots, p)
		}

		for _, p := range plots {
			p.Metadata = metadata
			if err := s.plots.Update(txCtx, p); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set plot data")
			}
			s.emit(txCtx, audit.Event{
				Type:   audit.EventPlotDataSet,
				Actor:  caller.String(),
				PlotID: uint64(p.ID),
			})
		}
		return nil
	})
}
