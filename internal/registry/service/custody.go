package service

import (
	"context"
	"time"

	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/requestcontext"
)

// The custody surface lets an auction escrow hold and release plots. Custody
// moves are deliberately not pause-gated: a seller must be able to cancel an
// auction and recover the plot even during an emergency stop. The auction
// service applies the pause gate on creation and bidding itself.

// IsApprovedForCustody reports whether operator holds a live approval on id.
func (s *Service) IsApprovedForCustody(ctx context.Context, id domain.PlotID, operator domain.AccountID) (bool, error) {
	p, err := s.getPlot(ctx, id)
	if err != nil {
		return false, err
	}
	return !p.PendingApproval.IsZero() && p.PendingApproval == operator, nil
}

// TransferCustodyIn moves a plot from its owner into the operator's custody.
// The owner must have approved the operator beforehand.
func (s *Service) TransferCustodyIn(ctx context.Context, operator, from domain.AccountID, id domain.PlotID) error {
	if operator.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "operator identity is required")
	}
	return s.mutate(ctx, func(txCtx context.Context) error {
		p, err := s.getPlot(txCtx, id)
		if err != nil {
			return err
		}
		if p.Owner != from {
			return dErrors.Newf(dErrors.CodeForbidden, "plot %d is not held by the expected owner", id)
		}
		if p.PendingApproval.IsZero() || p.PendingApproval != operator {
			return dErrors.Newf(dErrors.CodeForbidden, "operator is not approved for plot %d", id)
		}

		p.Owner = operator
		p.PendingApproval = domain.AccountID{}
		if err := s.plots.Update(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to take custody of plot")
		}
		return nil
	})
}

// TransferCustodyOut releases a plot from the operator's custody to the
// given account.
func (s *Service) TransferCustodyOut(ctx context.Context, operator, to domain.AccountID, id domain.PlotID) error {
	if operator.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "operator identity is required")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "recipient must not be the null identity")
	}
	return s.mutate(ctx, func(txCtx context.Context) error {
		p, err := s.getPlot(txCtx, id)
		if err != nil {
			return err
		}
		if p.Owner != operator {
			return dErrors.Newf(dErrors.CodeForbidden, "plot %d is not in the operator's custody", id)
		}

		p.Owner = to
		p.PendingApproval = domain.AccountID{}
		if err := s.plots.Update(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release custody of plot")
		}
		return nil
	})
}

// GrantRental grants a rental on a plot held in the operator's custody. Used
// by rent auctions to convert a winning bid into a time-boxed tenancy.
func (s *Service) GrantRental(ctx context.Context, operator, renter domain.AccountID, duration time.Duration, id domain.PlotID) error {
	if operator.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "operator identity is required")
	}
	if renter.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "renter must not be the null identity")
	}
	if duration <= 0 {
		return dErrors.New(dErrors.CodeValidation, "rental duration must be positive")
	}
	return s.mutate(ctx, func(txCtx context.Context) error {
		p, err := s.getPlot(txCtx, id)
		if err != nil {
			return err
		}
		if p.Owner != operator {
			return dErrors.Newf(dErrors.CodeForbidden, "plot %d is not in the operator's custody", id)
		}

		now := requestcontext.Now(txCtx)
		if _, rented := p.ActiveRenter(now); rented {
			return dErrors.Newf(dErrors.CodeConflict, "plot %d already has an active rental", id)
		}

		p.Renter = renter
		p.RentPeriodEnd = now.Add(duration)
		if err := s.plots.Update(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant rental")
		}
		return nil
	})
}

// CreditBeneficiary adds swept auction proceeds to the protocol treasury.
func (s *Service) CreditBeneficiary(ctx context.Context, amount uint64) error {
	if amount == 0 {
		return nil
	}
	return s.mutate(ctx, func(txCtx context.Context) error {
		if err := s.balances.CreditProtocol(txCtx, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit protocol balance")
		}
		return nil
	})
}
