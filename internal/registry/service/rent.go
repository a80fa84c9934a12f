package service

import (
	"context"
	"time"

	"landgrid/internal/audit"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/requestcontext"
)

// RentOut grants a rental of the plot until now + duration. Rentals expire
// lazily: expiry is a comparison against the request clock, never a write.
func (s *Service) RentOut(ctx context.Context, caller, to domain.AccountID, duration time.Duration, id domain.PlotID) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "renter must not be the null identity")
	}
	if duration <= 0 {
		return dErrors.New(dErrors.CodeValidation, "rental duration must be positive")
	}

	err := s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireNotPaused(txCtx); err != nil {
			return err
		}

		p, err := s.getPlot(txCtx, id)
		if err != nil {
			return err
		}
		if p.Owner != caller {
			return dErrors.Newf(dErrors.CodeForbidden, "caller does not own plot %d", id)
		}

		now := requestcontext.Now(txCtx)
		if _, rented := p.ActiveRenter(now); rented {
			return dErrors.Newf(dErrors.CodeConflict, "plot %d already has an active rental", id)
		}

		p.Renter = to
		p.RentPeriodEnd = now.Add(duration)
		if err := s.plots.Update(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to rent out plot")
		}

		s.emit(txCtx, audit.Event{
			Type:      audit.EventPlotRented,
			Actor:     caller.String(),
			Recipient: to.String(),
			PlotID:    uint64(id),
		})
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.PlotsRented.Inc()
	}
	s.logger.InfoContext(ctx, "plot rented out",
		"caller", caller.String(),
		"renter", to.String(),
		"plot_id", uint64(id),
		"duration", duration,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
