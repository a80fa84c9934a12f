package service

import (
	"context"
	"errors"

	"landgrid/internal/audit"
	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/platform/sentinel"
	"landgrid/pkg/requestcontext"
)

func (s *Service) getPlot(ctx context.Context, id domain.PlotID) (*models.Plot, error) {
	if !s.grid.Contains(id) {
		return nil, dErrors.Newf(dErrors.CodeOutOfBounds, "plot id %d exceeds grid capacity", id)
	}
	p, err := s.plots.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "plot %d is not claimed", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plot")
	}
	return p, nil
}

// Transfer moves ownership of a plot to another account. An active rental
// survives the transfer unchanged; any pending approval is invalidated.
func (s *Service) Transfer(ctx context.Context, caller, to domain.AccountID, id domain.PlotID) error {
	return s.TransferBatch(ctx, caller, to, []domain.PlotID{id})
}

// TransferBatch transfers every listed plot atomically.
func (s *Service) TransferBatch(ctx context.Context, caller, to domain.AccountID, ids []domain.PlotID) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "recipient must not be the null identity")
	}
	if len(ids) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one plot id is required")
	}

	err := s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireNotPaused(txCtx); err != nil {
			return err
		}

		plots := make([]*models.Plot, 0, len(ids))
		for _, id := range ids {
			p, err := s.getPlot(txCtx, id)
			if err != nil {
				return err
			}
			if p.Owner != caller {
				return dErrors.Newf(dErrors.CodeForbidden, "caller does not own plot %d", id)
			}
			plots = append(plots, p)
		}

		for _, p := range plots {
			p.Owner = to
			p.PendingApproval = domain.AccountID{}
			if err := s.plots.Update(txCtx, p); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer plot")
			}
			s.emit(txCtx, audit.Event{
				Type:      audit.EventPlotTransferred,
				Actor:     caller.String(),
				Recipient: to.String(),
				PlotID:    uint64(p.ID),
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.PlotsTransferred.Add(float64(len(ids)))
	}
	s.logger.InfoContext(ctx, "plots transferred",
		"caller", caller.String(),
		"recipient", to.String(),
		"plots", len(ids),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Approve authorizes one account to take ownership of a plot once. Any
// subsequent transfer invalidates the approval, so a stale approval can never
// be exercised against a new owner.
func (s *Service) Approve(ctx context.Context, caller, to domain.AccountID, id domain.PlotID) error {
	return s.ApproveBatch(ctx, caller, to, []domain.PlotID{id})
}

// ApproveBatch approves every listed plot atomically.
func (s *Service) ApproveBatch(ctx context.Context, caller, to domain.AccountID, ids []domain.PlotID) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "approved account must not be the null identity")
	}
	if len(ids) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one plot id is required")
	}

	return s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireNotPaused(txCtx); err != nil {
			return err
		}

		plots := make([]*models.Plot, 0, len(ids))
		for _, id := range ids {
			p, err := s.getPlot(txCtx, id)
			if err != nil {
				return err
			}
			if p.Owner != caller {
				return dErrors.Newf(dErrors.CodeForbidden, "caller does not own plot %d", id)
			}
			plots = append(plots, p)
		}

		for _, p := range plots {
			p.PendingApproval = to
			if err := s.plots.Update(txCtx, p); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to approve plot")
			}
			s.emit(txCtx, audit.Event{
				Type:      audit.EventPlotApproved,
				Actor:     caller.String(),
				Recipient: to.String(),
				PlotID:    uint64(p.ID),
			})
		}
		return nil
	})
}

// TakeOwnership completes a two-phase transfer: the caller must be the live
// pending approval of the plot.
func (s *Service) TakeOwnership(ctx context.Context, caller domain.AccountID, id domain.PlotID) error {
	return s.TakeOwnershipBatch(ctx, caller, []domain.PlotID{id})
}

// TakeOwnershipBatch completes every listed approval atomically.
func (s *Service) TakeOwnershipBatch(ctx context.Context, caller domain.AccountID, ids []domain.PlotID) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	if len(ids) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one plot id is required")
	}

	err := s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireNotPaused(txCtx); err != nil {
			return err
		}

		plots := make([]*models.Plot, 0, len(ids))
		for _, id := range ids {
			p, err := s.getPlot(txCtx, id)
			if err != nil {
				return err
			}
			if p.PendingApproval.IsZero() || p.PendingApproval != caller {
				return dErrors.Newf(dErrors.CodeForbidden, "caller is not approved for plot %d", id)
			}
			plots = append(plots, p)
		}

		for _, p := range plots {
			previous := p.Owner
			p.Owner = caller
			p.PendingApproval = domain.AccountID{}
			if err := s.plots.Update(txCtx, p); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to take ownership")
			}
			s.emit(txCtx, audit.Event{
				Type:      audit.EventPlotTransferred,
				Actor:     previous.String(),
				Recipient: caller.String(),
				PlotID:    uint64(p.ID),
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.PlotsTransferred.Add(float64(len(ids)))
	}
	return nil
}
