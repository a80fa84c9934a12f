package service

import (
	"context"
	"time"

	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/requestcontext"
)

// OwnerOf returns the current owner of a claimed plot.
func (s *Service) OwnerOf(ctx context.Context, id domain.PlotID) (domain.AccountID, error) {
	p, err := s.getPlot(ctx, id)
	if err != nil {
		return domain.AccountID{}, err
	}
	return p.Owner, nil
}

// RenterOf returns the active renter and the rental end. Once the rental has
// expired it returns the null identity and the zero time without any state
// change having occurred.
func (s *Service) RenterOf(ctx context.Context, id domain.PlotID) (domain.AccountID, time.Time, error) {
	p, err := s.getPlot(ctx, id)
	if err != nil {
		return domain.AccountID{}, time.Time{}, err
	}
	renter, rented := p.ActiveRenter(requestcontext.Now(ctx))
	if !rented {
		return domain.AccountID{}, time.Time{}, nil
	}
	return renter, p.RentPeriodEnd, nil
}

// Plot returns the full plot record.
func (s *Service) Plot(ctx context.Context, id domain.PlotID) (*models.Plot, error) {
	return s.getPlot(ctx, id)
}

// MetadataOf returns a plot's metadata.
func (s *Service) MetadataOf(ctx context.Context, id domain.PlotID) (models.Metadata, error) {
	p, err := s.getPlot(ctx, id)
	if err != nil {
		return models.Metadata{}, err
	}
	return p.Metadata, nil
}

// PlotURI formats the canonical metadata URI for a plot.
func (s *Service) PlotURI(ctx context.Context, id domain.PlotID) (string, error) {
	return s.grid.MetadataURI(s.baseURI, s.uriStyle, id)
}

// Count returns the number of claimed plots.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	n, err := s.plots.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count plots")
	}
	return n, nil
}

// CountByOwner returns the number of plots held by owner.
func (s *Service) CountByOwner(ctx context.Context, owner domain.AccountID) (uint64, error) {
	if owner.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "owner must not be the null identity")
	}
	n, err := s.plots.CountByOwner(ctx, owner)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count plots by owner")
	}
	return n, nil
}

// Params returns the current economic configuration.
func (s *Service) Params(ctx context.Context) (models.Params, error) {
	params, err := s.params.Get(ctx)
	if err != nil {
		return models.Params{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry params")
	}
	return params, nil
}

// Balance returns the outstanding pull-payment balance of an account.
func (s *Service) Balance(ctx context.Context, account domain.AccountID) (uint64, error) {
	if account.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "account must not be the null identity")
	}
	amount, err := s.balances.Balance(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	return amount, nil
}

// ProtocolBalance returns the protocol treasury balance.
func (s *Service) ProtocolBalance(ctx context.Context) (uint64, error) {
	amount, err := s.balances.ProtocolBalance(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load protocol balance")
	}
	return amount, nil
}

// OutstandingTotal returns the sum owed across all individual balances.
func (s *Service) OutstandingTotal(ctx context.Context) (uint64, error) {
	total, err := s.balances.OutstandingTotal(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum outstanding balances")
	}
	return total, nil
}

// FreeClaimAllowance returns an account's remaining free-claim allowance.
func (s *Service) FreeClaimAllowance(ctx context.Context, account domain.AccountID) (uint64, error) {
	if account.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "account must not be the null identity")
	}
	n, err := s.allowances.Get(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load free-claim allowance")
	}
	return n, nil
}
