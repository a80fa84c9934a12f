package service

import (
	"context"

	"landgrid/internal/audit"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
)

// neighborHolding is one claimed Moore neighbor and its current owner.
type neighborHolding struct {
	ID    domain.PlotID
	Owner domain.AccountID
}

// effectiveNeighbors returns the claimed Moore neighbors of id in ascending
// identifier order, which fixes the payout order of dividend events. Only
// plots claimed before the current call count: plots created earlier in the
// same batch are not effective neighbors of later ones.
func (s *Service) effectiveNeighbors(ctx context.Context, id domain.PlotID) ([]neighborHolding, error) {
	ids, err := s.grid.Neighbors(id)
	if err != nil {
		return nil, err
	}
	claimed, err := s.plots.GetMany(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load neighbor plots")
	}

	out := make([]neighborHolding, 0, len(ids))
	for _, nid := range ids {
		if p, ok := claimed[nid]; ok {
			out = append(out, neighborHolding{ID: nid, Owner: p.Owner})
		}
	}
	return out, nil
}

// creditClaimDividends credits each neighbor's owner with the fixed
// per-neighbor claim dividend. The caller has already charged the payer the
// matching surcharge, so crediting cannot fail a committed claim.
func (s *Service) creditClaimDividends(ctx context.Context, payer domain.AccountID, plotID domain.PlotID, neighbors []neighborHolding, dividend uint64) error {
	if dividend == 0 {
		return nil
	}
	for _, n := range neighbors {
		if err := s.balances.Credit(ctx, n.Owner, dividend); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit claim dividend")
		}
		s.emit(ctx, audit.Event{
			Type:      audit.EventClaimDividend,
			Actor:     payer.String(),
			Recipient: n.Owner.String(),
			PlotID:    uint64(plotID),
			Amount:    dividend,
		})
	}
	if s.metrics != nil {
		s.metrics.DividendsCredited.Add(float64(dividend * uint64(len(neighbors))))
	}
	return nil
}

// splitBuyoutPool floor-divides the buyout dividend pool across n neighbors.
// Returns the per-neighbor quotient and the remainder retained by the
// protocol. A zero neighbor count leaves the whole pool as remainder.
func splitBuyoutPool(pool uint64, n int) (perNeighbor, remainder uint64) {
	if n == 0 {
		return 0, pool
	}
	perNeighbor = pool / uint64(n)
	return perNeighbor, pool - perNeighbor*uint64(n)
}
