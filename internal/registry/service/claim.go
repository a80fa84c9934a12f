package service

import (
	"context"
	"errors"
	"time"

	"landgrid/internal/audit"
	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/platform/sentinel"
	"landgrid/pkg/requestcontext"
)

// ClaimRequest claims one or more unclaimed plots in array order.
type ClaimRequest struct {
	Caller domain.AccountID
	IDs    []domain.PlotID

	// BuyoutPrice applies to every claimed plot. Zero selects the default
	// initial buyout price derived from the unclaimed plot price.
	BuyoutPrice uint64

	// Payment must cover the total cost; the excess is refunded in the result.
	Payment uint64

	// Metadata, when set, is applied to every claimed plot in the same call.
	Metadata *models.Metadata
}

// ClaimResult reports what a successful claim cost and returned.
type ClaimResult struct {
	IDs           []domain.PlotID
	Cost          uint64
	Refund        uint64
	AllowanceUsed uint64
}

// Claim claims a single plot.
func (s *Service) Claim(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	if len(req.IDs) != 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "claim takes exactly one plot id")
	}
	return s.ClaimBatch(ctx, req)
}

// ClaimBatch claims every requested plot atomically. Per-plot costs accrue in
// array order: the free-claim allowance is drawn down id by id. Plots claimed
// earlier in the same batch do not count as neighbors for later ones; only
// plots claimed before the call participate in dividends.
func (s *Service) ClaimBatch(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	start := time.Now()
	if req.Caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	if len(req.IDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one plot id is required")
	}

	type plannedClaim struct {
		plot      *models.Plot
		neighbors []neighborHolding
		base      uint64
	}

	var result *ClaimResult
	err := s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireNotPaused(txCtx); err != nil {
			return err
		}

		params, err := s.params.Get(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry params")
		}

		buyoutPrice := req.BuyoutPrice
		if buyoutPrice == 0 {
			buyoutPrice = params.InitialBuyoutPrice()
		} else if err := params.ValidateBuyoutPrice(buyoutPrice); err != nil {
			return err
		}

		allowanceRemaining, err := s.allowances.Get(txCtx, req.Caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load free-claim allowance")
		}
		allowanceBefore := allowanceRemaining

		now := requestcontext.Now(txCtx)
		dividend := params.ClaimDividend()

		planned := make([]plannedClaim, 0, len(req.IDs))
		pending := make(map[domain.PlotID]*models.Plot, len(req.IDs))
		var totalCost, baseTotal uint64

		for _, id := range req.IDs {
			if !s.grid.Contains(id) {
				return dErrors.Newf(dErrors.CodeOutOfBounds, "plot id %d exceeds grid capacity", id)
			}
			if _, ok := pending[id]; ok {
				return dErrors.Newf(dErrors.CodeConflict, "duplicate plot id %d in batch", id)
			}
			if _, err := s.plots.Get(txCtx, id); err == nil {
				return dErrors.Newf(dErrors.CodeConflict, "plot %d is already claimed", id)
			} else if !errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check plot")
			}

			neighbors, err := s.effectiveNeighbors(txCtx, id)
			if err != nil {
				return err
			}

			var base uint64
			if allowanceRemaining > 0 {
				allowanceRemaining--
			} else {
				base = params.UnclaimedPlotPrice
			}

			p := &models.Plot{
				ID:          id,
				Owner:       req.Caller,
				CreatedAt:   now,
				BuyoutPrice: buyoutPrice,
			}
			if req.Metadata != nil {
				p.Metadata = *req.Metadata
			}
			pending[id] = p
			planned = append(planned, plannedClaim{plot: p, neighbors: neighbors, base: base})
			totalCost += base + dividend*uint64(len(neighbors))
			baseTotal += base
		}

		if req.Payment < totalCost {
			return dErrors.Newf(dErrors.CodeInsufficientPayment, "payment %d below cost %d", req.Payment, totalCost)
		}

		for _, pc := range planned {
			if err := s.plots.Create(txCtx, pc.plot); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create plot")
			}
			s.emit(txCtx, audit.Event{
				Type:   audit.EventPlotClaimed,
				Actor:  req.Caller.String(),
				PlotID: uint64(pc.plot.ID),
				Amount: pc.base,
			})
			if err := s.creditClaimDividends(txCtx, req.Caller, pc.plot.ID, pc.neighbors, dividend); err != nil {
				return err
			}
			if req.Metadata != nil {
				s.emit(txCtx, audit.Event{
					Type:   audit.EventPlotDataSet,
					Actor:  req.Caller.String(),
					PlotID: uint64(pc.plot.ID),
				})
			}
		}

		if err := s.balances.CreditProtocol(txCtx, baseTotal); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit protocol balance")
		}
		if allowanceRemaining != allowanceBefore {
			if err := s.allowances.Set(txCtx, req.Caller, allowanceRemaining); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update free-claim allowance")
			}
		}

		result = &ClaimResult{
			IDs:           req.IDs,
			Cost:          totalCost,
			Refund:        req.Payment - totalCost,
			AllowanceUsed: allowanceBefore - allowanceRemaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PlotsClaimed.Add(float64(len(req.IDs)))
		s.metrics.ObserveClaim(start)
	}
	s.logger.InfoContext(ctx, "plots claimed",
		"caller", req.Caller.String(),
		"plots", len(req.IDs),
		"cost", result.Cost,
		"refund", result.Refund,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}
