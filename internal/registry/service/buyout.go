package service

import (
	"context"
	"time"

	"landgrid/internal/audit"
	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/requestcontext"
)

// BuyoutQuote is the cost breakdown of a prospective buyout.
type BuyoutQuote struct {
	BuyoutPrice       uint64
	DividendSurcharge uint64
	TotalCost         uint64
	Neighbors         int
}

// BuyoutCost quotes the full price of buying out a plot: the current buyout
// price plus the per-neighbor claim-dividend surcharge.
func (s *Service) BuyoutCost(ctx context.Context, id domain.PlotID) (*BuyoutQuote, error) {
	p, err := s.getPlot(ctx, id)
	if err != nil {
		return nil, err
	}
	params, err := s.params.Get(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry params")
	}
	neighbors, err := s.effectiveNeighbors(ctx, id)
	if err != nil {
		return nil, err
	}

	surcharge := params.ClaimDividend() * uint64(len(neighbors))
	return &BuyoutQuote{
		BuyoutPrice:       p.BuyoutPrice,
		DividendSurcharge: surcharge,
		TotalCost:         p.BuyoutPrice + surcharge,
		Neighbors:         len(neighbors),
	}, nil
}

// BuyoutRequest forcibly purchases a claimed plot at its posted buyout price.
type BuyoutRequest struct {
	Caller  domain.AccountID
	ID      domain.PlotID
	Payment uint64

	// Metadata, when set, replaces the plot's metadata in the same call.
	Metadata *models.Metadata
}

// BuyoutResult reports the settlement of a successful buyout.
type BuyoutResult struct {
	Cost           uint64
	Refund         uint64
	SellerProceeds uint64
	NewBuyoutPrice uint64
}

// Buyout transfers ownership against the owner's will at the posted price.
// The buyer pays the buyout price plus the claim-dividend surcharge per
// effective neighbor. Out of the buyout price, a dividend pool is
// floor-divided across the neighbors, a fee goes to the protocol treasury,
// and the seller is credited the rest. The plot's price then escalates and
// can no longer be set by its owner.
func (s *Service) Buyout(ctx context.Context, req BuyoutRequest) (*BuyoutResult, error) {
	start := time.Now()
	if req.Caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	var result *BuyoutResult
	err := s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireNotPaused(txCtx); err != nil {
			return err
		}

		p, err := s.getPlot(txCtx, req.ID)
		if err != nil {
			return err
		}

		now := requestcontext.Now(txCtx)
		if s.buyoutLockout > 0 {
			unlockAt := p.CreatedAt.Add(s.buyoutLockout)
			if now.Before(unlockAt) {
				return dErrors.Newf(dErrors.CodeForbidden, "plot %d cannot be bought out until %s", req.ID, unlockAt.UTC().Format(time.RFC3339))
			}
		}

		params, err := s.params.Get(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry params")
		}
		neighbors, err := s.effectiveNeighbors(txCtx, req.ID)
		if err != nil {
			return err
		}

		dividend := params.ClaimDividend()
		surcharge := dividend * uint64(len(neighbors))
		totalCost := p.BuyoutPrice + surcharge
		if req.Payment < totalCost {
			return dErrors.Newf(dErrors.CodeInsufficientPayment, "payment %d below cost %d", req.Payment, totalCost)
		}

		pool := params.BuyoutDividendPool(p.BuyoutPrice)
		fee := params.BuyoutFee(p.BuyoutPrice)
		perNeighbor, remainder := splitBuyoutPool(pool, len(neighbors))
		sellerProceeds := p.BuyoutPrice - pool - fee
		seller := p.Owner

		if err := s.balances.Credit(txCtx, seller, sellerProceeds); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit seller")
		}
		if err := s.creditClaimDividends(txCtx, req.Caller, req.ID, neighbors, dividend); err != nil {
			return err
		}
		for _, n := range neighbors {
			if perNeighbor == 0 {
				break
			}
			if err := s.balances.Credit(txCtx, n.Owner, perNeighbor); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit buyout dividend")
			}
			s.emit(txCtx, audit.Event{
				Type:      audit.EventBuyoutDividend,
				Actor:     req.Caller.String(),
				Recipient: n.Owner.String(),
				PlotID:    uint64(req.ID),
				Amount:    perNeighbor,
			})
		}
		if err := s.balances.CreditProtocol(txCtx, fee+remainder); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit protocol balance")
		}

		p.Owner = req.Caller
		p.HasBeenBoughtOut = true
		p.BuyoutPrice = models.NextBuyoutPrice(totalCost)
		p.PendingApproval = domain.AccountID{}
		if req.Metadata != nil {
			p.Metadata = *req.Metadata
		}
		if err := s.plots.Update(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer bought-out plot")
		}

		s.emit(txCtx, audit.Event{
			Type:      audit.EventBuyout,
			Actor:     req.Caller.String(),
			Recipient: seller.String(),
			PlotID:    uint64(req.ID),
			Amount:    totalCost,
		})

		result = &BuyoutResult{
			Cost:           totalCost,
			Refund:         req.Payment - totalCost,
			SellerProceeds: sellerProceeds,
			NewBuyoutPrice: p.BuyoutPrice,
		}

		if s.metrics != nil {
			s.metrics.DividendsCredited.Add(float64(perNeighbor * uint64(len(neighbors))))
			s.metrics.FeesCollected.Add(float64(fee + remainder))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Buyouts.Inc()
		s.metrics.PlotsTransferred.Inc()
		s.metrics.ObserveBuyout(start)
	}
	s.logger.InfoContext(ctx, "plot bought out",
		"caller", req.Caller.String(),
		"plot_id", uint64(req.ID),
		"cost", result.Cost,
		"new_buyout_price", result.NewBuyoutPrice,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

// SetInitialBuyoutPrice lets the owner reprice a plot within bounds, but only
// until its first buyout; afterwards the escalation rule alone sets the price.
func (s *Service) SetInitialBuyoutPrice(ctx context.Context, caller domain.AccountID, id domain.PlotID, newPrice uint64) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	return s.mutate(ctx, func(txCtx context.Context) error {
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
		if p.HasBeenBoughtOut {
			return dErrors.Newf(dErrors.CodeConflict, "plot %d has been bought out, its price is no longer owner-settable", id)
		}

		params, err := s.params.Get(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry params")
		}
		if err := params.ValidateBuyoutPrice(newPrice); err != nil {
			return err
		}

		p.BuyoutPrice = newPrice
		if err := s.plots.Update(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set buyout price")
		}
		return nil
	})
}
