package service

import (
	"context"

	"landgrid/internal/audit"
	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/requestcontext"
)

// Withdraw releases the caller's entire outstanding balance. This is the only
// operation that debits the pull-payment ledger for an individual account.
func (s *Service) Withdraw(ctx context.Context, caller domain.AccountID) (uint64, error) {
	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	var amount uint64
	err := s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireNotPaused(txCtx); err != nil {
			return err
		}

		var err error
		amount, err = s.balances.Withdraw(txCtx, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw balance")
		}
		if amount == 0 {
			return dErrors.New(dErrors.CodeNotFound, "nothing owed")
		}

		s.emit(txCtx, audit.Event{
			Type:   audit.EventBalanceWithdrawn,
			Actor:  caller.String(),
			Amount: amount,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.Withdrawals.Inc()
	}
	s.logger.InfoContext(ctx, "balance withdrawn",
		"caller", caller.String(),
		"amount", amount,
		"request_id", requestcontext.RequestID(ctx),
	)
	return amount, nil
}

// WithdrawProtocolBalance sweeps the protocol treasury: fees, floor
// remainders, and base claim proceeds. Treasurer only. Individual balances
// are never touched.
func (s *Service) WithdrawProtocolBalance(ctx context.Context, caller domain.AccountID) (uint64, error) {
	var amount uint64
	err := s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireTreasurer(txCtx, caller); err != nil {
			return err
		}

		var err error
		amount, err = s.balances.WithdrawProtocol(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw protocol balance")
		}
		if amount == 0 {
			return dErrors.New(dErrors.CodeNotFound, "nothing owed")
		}

		s.emit(txCtx, audit.Event{
			Type:   audit.EventProtocolWithdrawn,
			Actor:  caller.String(),
			Amount: amount,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "protocol balance withdrawn",
		"caller", caller.String(),
		"amount", amount,
		"request_id", requestcontext.RequestID(ctx),
	)
	return amount, nil
}

func (s *Service) updateParams(ctx context.Context, caller domain.AccountID, apply func(p *models.Params) error) error {
	return s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireTreasurer(txCtx, caller); err != nil {
			return err
		}

		params, err := s.params.Get(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry params")
		}
		if err := apply(&params); err != nil {
			return err
		}
		if err := params.Validate(); err != nil {
			return err
		}
		if err := s.params.Put(txCtx, params); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registry params")
		}
		return nil
	})
}

// SetUnclaimedPlotPrice updates the base price of unclaimed plots.
func (s *Service) SetUnclaimedPlotPrice(ctx context.Context, caller domain.AccountID, price uint64) error {
	return s.updateParams(ctx, caller, func(p *models.Params) error {
		if err := models.ValidateUnclaimedPlotPrice(price); err != nil {
			return err
		}
		p.UnclaimedPlotPrice = price
		return nil
	})
}

// SetClaimDividendPercentage updates the claim dividend percentage.
func (s *Service) SetClaimDividendPercentage(ctx context.Context, caller domain.AccountID, pct uint64) error {
	return s.updateParams(ctx, caller, func(p *models.Params) error {
		if err := models.ValidateDividendPercentage(pct); err != nil {
			return err
		}
		p.ClaimDividendPercentage = pct
		return nil
	})
}

// SetBuyoutDividendPercentage updates the buyout dividend percentage.
func (s *Service) SetBuyoutDividendPercentage(ctx context.Context, caller domain.AccountID, pct uint64) error {
	return s.updateParams(ctx, caller, func(p *models.Params) error {
		if err := models.ValidateDividendPercentage(pct); err != nil {
			return err
		}
		p.BuyoutDividendPercentage = pct
		return nil
	})
}

// SetBuyoutFeePercentage updates the buyout fee percentage.
func (s *Service) SetBuyoutFeePercentage(ctx context.Context, caller domain.AccountID, pct uint64) error {
	return s.updateParams(ctx, caller, func(p *models.Params) error {
		if err := models.ValidateBuyoutFeePercentage(pct); err != nil {
			return err
		}
		p.BuyoutFeePercentage = pct
		return nil
	})
}

// SetFreeClaimAllowance grants an account n free claims. One allowance unit
// waives the base price of one claim; dividend surcharges are never waived.
func (s *Service) SetFreeClaimAllowance(ctx context.Context, caller, account domain.AccountID, n uint64) error {
	if account.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "account must not be the null identity")
	}
	return s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.access.RequireTreasurer(txCtx, caller); err != nil {
			return err
		}
		if err := s.allowances.Set(txCtx, account, n); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set free-claim allowance")
		}
		return nil
	})
}
