package service

import (
	"context"
	"errors"
	"time"

	"landgrid/internal/auction/models"
	"landgrid/internal/audit"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/platform/sentinel"
	"landgrid/pkg/requestcontext"
)

// CreateRequest describes a new clock auction.
type CreateRequest struct {
	Seller     domain.AccountID
	PlotID     domain.PlotID
	Kind       models.Kind
	StartPrice uint64
	EndPrice   uint64
	Duration   time.Duration
	// RentalDuration is the tenancy granted to the winner of a rent auction.
	RentalDuration time.Duration
}

// Create opens an auction and takes custody of the plot. The seller must own
// the plot and must have approved the escrow beforehand.
func (s *Service) Create(ctx context.Context, req CreateRequest) error {
	a := &models.Auction{
		PlotID:         req.PlotID,
		Seller:         req.Seller,
		Kind:           req.Kind,
		StartPrice:     req.StartPrice,
		EndPrice:       req.EndPrice,
		Duration:       req.Duration,
		StartedAt:      requestcontext.Now(ctx),
		RentalDuration: req.RentalDuration,
	}
	if err := a.Validate(); err != nil {
		return err
	}

	err := s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireNotPaused(txCtx); err != nil {
			return err
		}

		owner, err := s.assets.OwnerOf(txCtx, req.PlotID)
		if err != nil {
			return err
		}
		if owner != req.Seller {
			return dErrors.Newf(dErrors.CodeForbidden, "plot %d is not held by the seller", req.PlotID)
		}
		approved, err := s.assets.IsApprovedForCustody(txCtx, req.PlotID, s.operator)
		if err != nil {
			return err
		}
		if !approved {
			return dErrors.Newf(dErrors.CodeForbidden, "escrow is not approved for plot %d", req.PlotID)
		}

		if err := s.auctions.Create(txCtx, a); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Newf(dErrors.CodeConflict, "plot %d is already on auction", req.PlotID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create auction")
		}
		if err := s.assets.TransferCustodyIn(txCtx, s.operator, req.Seller, req.PlotID); err != nil {
			return err
		}

		s.emit(txCtx, audit.Event{
			Type:   audit.EventAuctionCreated,
			Actor:  req.Seller.String(),
			PlotID: uint64(req.PlotID),
			Amount: req.StartPrice,
		})
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.AuctionsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "auction created",
		"seller", req.Seller.String(),
		"plot_id", uint64(req.PlotID),
		"kind", string(a.Kind),
		"start_price", req.StartPrice,
		"end_price", req.EndPrice,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func (s *Service) getAuction(ctx context.Context, id domain.PlotID) (*models.Auction, error) {
	a, err := s.auctions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "plot %d is not on auction", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load auction")
	}
	return a, nil
}

// Auction returns the live auction record for a plot.
func (s *Service) Auction(ctx context.Context, id domain.PlotID) (*models.Auction, error) {
	return s.getAuction(ctx, id)
}

// CurrentPrice quotes the clock price of a live auction at the request time.
func (s *Service) CurrentPrice(ctx context.Context, id domain.PlotID) (uint64, error) {
	a, err := s.getAuction(ctx, id)
	if err != nil {
		return 0, err
	}
	return priceAt(a, requestcontext.Now(ctx)), nil
}

// BidResult reports how a winning bid settled.
type BidResult struct {
	Price  uint64
	Refund uint64
	Fee    uint64
}

// Bid settles a live auction at the current clock price. Sale auctions hand
// the plot to the bidder; rent auctions grant the bidder a rental and return
// the plot to the seller. Seller proceeds go into the escrow's pull-payment
// ledger.
func (s *Service) Bid(ctx context.Context, caller domain.AccountID, id domain.PlotID, payment uint64) (*BidResult, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	var result BidResult
	err := s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireNotPaused(txCtx); err != nil {
			return err
		}

		a, err := s.getAuction(txCtx, id)
		if err != nil {
			return err
		}

		// A buyout can take the plot out of escrow mid-auction, leaving a
		// record with nothing behind it. Reject before any credit moves; only
		// the seller's cancel clears the stale record.
		owner, err := s.assets.OwnerOf(txCtx, id)
		if err != nil {
			return err
		}
		if owner != s.operator {
			return dErrors.Newf(dErrors.CodeConflict, "plot %d has left escrow, the auction is void", id)
		}

		price := priceAt(a, requestcontext.Now(txCtx))
		if payment < price {
			return dErrors.Newf(dErrors.CodeInsufficientPayment, "payment %d below current price %d", payment, price)
		}

		fee := price * s.feePct / models.PercentageDenominator
		if err := s.ledger.Credit(txCtx, a.Seller, price-fee); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit seller proceeds")
		}
		if err := s.ledger.CreditFree(txCtx, fee); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to retain auction fee")
		}

		switch a.Kind {
		case models.KindSale:
			if err := s.assets.TransferCustodyOut(txCtx, s.operator, caller, id); err != nil {
				return err
			}
		case models.KindRent:
			if err := s.assets.GrantRental(txCtx, s.operator, caller, a.RentalDuration, id); err != nil {
				return err
			}
			if err := s.assets.TransferCustodyOut(txCtx, s.operator, a.Seller, id); err != nil {
				return err
			}
		}

		if err := s.auctions.Delete(txCtx, id); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to close auction")
		}

		result = BidResult{Price: price, Refund: payment - price, Fee: fee}
		s.emit(txCtx, audit.Event{
			Type:      audit.EventAuctionConcluded,
			Actor:     caller.String(),
			Recipient: a.Seller.String(),
			PlotID:    uint64(id),
			Amount:    price,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AuctionsConcluded.Inc()
		s.metrics.SettledValue.Add(float64(result.Price))
		s.metrics.FeesRetained.Add(float64(result.Fee))
	}
	s.logger.InfoContext(ctx, "auction concluded",
		"bidder", caller.String(),
		"plot_id", uint64(id),
		"price", result.Price,
		"fee", result.Fee,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &result, nil
}

// Cancel ends an auction without a sale and returns the plot to the seller.
// Deliberately works while paused so sellers can always recover their plots.
func (s *Service) Cancel(ctx context.Context, caller domain.AccountID, id domain.PlotID) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	err := s.mutate(ctx, func(txCtx context.Context) error {
		a, err := s.getAuction(txCtx, id)
		if err != nil {
			return err
		}
		if a.Seller != caller {
			return dErrors.New(dErrors.CodeForbidden, "only the seller may cancel an auction")
		}

		// A buyout can take the plot out of escrow mid-auction. The record is
		// then stale: there is no custody to return, but cancelling must still
		// clear it or the plot could never be auctioned again.
		owner, err := s.assets.OwnerOf(txCtx, id)
		if err != nil {
			return err
		}
		if owner == s.operator {
			if err := s.assets.TransferCustodyOut(txCtx, s.operator, a.Seller, id); err != nil {
				return err
			}
		}
		if err := s.auctions.Delete(txCtx, id); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to close auction")
		}

		s.emit(txCtx, audit.Event{
			Type:   audit.EventAuctionCancelled,
			Actor:  caller.String(),
			PlotID: uint64(id),
		})
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.AuctionsCancelled.Inc()
	}
	s.logger.InfoContext(ctx, "auction cancelled",
		"seller", caller.String(),
		"plot_id", uint64(id),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// SetFee updates the cut retained from winning bids. Administrator only.
func (s *Service) SetFee(ctx context.Context, caller domain.AccountID, pct uint64) error {
	if pct > models.MaxFeePercentage {
		return dErrors.Newf(dErrors.CodeValidation, "fee percentage must not exceed %d", models.MaxFeePercentage)
	}
	return s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireAdministrator(txCtx, caller); err != nil {
			return err
		}
		s.feePct = pct
		return nil
	})
}

// Balance returns the auction proceeds owed to an account.
func (s *Service) Balance(ctx context.Context, account domain.AccountID) (uint64, error) {
	if account.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "account must not be the null identity")
	}
	amount, err := s.ledger.Balance(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load auction balance")
	}
	return amount, nil
}

// WithdrawBalance releases the caller's auction proceeds.
func (s *Service) WithdrawBalance(ctx context.Context, caller domain.AccountID) (uint64, error) {
	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	var amount uint64
	err := s.mutate(ctx, func(txCtx context.Context) error {
		var err error
		amount, err = s.ledger.Withdraw(txCtx, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw auction balance")
		}
		if amount == 0 {
			return dErrors.New(dErrors.CodeNotFound, "nothing owed")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "auction balance withdrawn",
		"caller", caller.String(),
		"amount", amount,
		"request_id", requestcontext.RequestID(ctx),
	)
	return amount, nil
}

// SweepFreeBalance moves retained fees to the registry's protocol treasury.
// Administrator only. Seller proceeds are owed, never swept.
func (s *Service) SweepFreeBalance(ctx context.Context, caller domain.AccountID) (uint64, error) {
	var amount uint64
	err := s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireAdministrator(txCtx, caller); err != nil {
			return err
		}

		var err error
		amount, err = s.ledger.WithdrawFree(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw free balance")
		}
		if amount == 0 {
			return dErrors.New(dErrors.CodeNotFound, "nothing owed")
		}
		return s.assets.CreditBeneficiary(txCtx, amount)
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "auction fees swept",
		"caller", caller.String(),
		"amount", amount,
		"request_id", requestcontext.RequestID(ctx),
	)
	return amount, nil
}
