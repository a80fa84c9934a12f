package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landgrid/internal/audit"
	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
)

func TestClaim(t *testing.T) {
	t.Run("claims an unclaimed plot at the base price", func(t *testing.T) {
		f := newFixture(t, testParams)
		caller := domain.NewAccountID()
		id := f.mustID(t, 23, 46)

		res, err := f.svc.Claim(testCtx(), ClaimRequest{Caller: caller, IDs: []domain.PlotID{id}, Payment: 150000})
		require.NoError(t, err)
		assert.Equal(t, uint64(100000), res.Cost)
		assert.Equal(t, uint64(50000), res.Refund)

		p, err := f.svc.Plot(testCtx(), id)
		require.NoError(t, err)
		assert.Equal(t, caller, p.Owner)
		assert.Equal(t, testNow, p.CreatedAt)
		assert.False(t, p.HasBeenBoughtOut)
		// Default buyout price is 2.5x the unclaimed plot price.
		assert.Equal(t, uint64(250000), p.BuyoutPrice)
	})

	t.Run("rejects payment below cost", func(t *testing.T) {
		f := newFixture(t, testParams)
		id := f.mustID(t, 23, 46)

		_, err := f.svc.Claim(testCtx(), ClaimRequest{Caller: domain.NewAccountID(), IDs: []domain.PlotID{id}, Payment: 99999})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientPayment))
	})

	t.Run("rejects a second claim of the same plot", func(t *testing.T) {
		f := newFixture(t, testParams)
		id := f.mustID(t, 23, 46)
		f.mustClaim(t, testCtx(), domain.NewAccountID(), 100000, id)

		_, err := f.svc.Claim(testCtx(), ClaimRequest{Caller: domain.NewAccountID(), IDs: []domain.PlotID{id}, Payment: 200000})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("rejects out of range plot ids", func(t *testing.T) {
		f := newFixture(t, testParams)

		_, err := f.svc.Claim(testCtx(), ClaimRequest{Caller: domain.NewAccountID(), IDs: []domain.PlotID{domain.PlotID(f.g.Capacity())}, Payment: 100000})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOutOfBounds))
	})

	t.Run("rejects buyout prices outside the configured bounds", func(t *testing.T) {
		f := newFixture(t, testParams)
		id := f.mustID(t, 23, 46)

		for _, price := range []uint64{50000, 5000000} { // 0.5x and 50x
			_, err := f.svc.Claim(testCtx(), ClaimRequest{Caller: domain.NewAccountID(), IDs: []domain.PlotID{id}, BuyoutPrice: price, Payment: 100000})
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}

		// 1x and 40x are the inclusive bounds.
		res, err := f.svc.Claim(testCtx(), ClaimRequest{Caller: domain.NewAccountID(), IDs: []domain.PlotID{id}, BuyoutPrice: 100000, Payment: 100000})
		require.NoError(t, err)
		assert.Equal(t, uint64(100000), res.Cost)
	})

	t.Run("charges a dividend surcharge per claimed neighbor", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner := domain.NewAccountID()
		f.mustClaim(t, testCtx(), owner, 200000, f.mustID(t, 10, 10), f.mustID(t, 11, 10))

		// (10, 11) touches both of the claimed plots.
		claimer := domain.NewAccountID()
		res, err := f.svc.Claim(testCtx(), ClaimRequest{Caller: claimer, IDs: []domain.PlotID{f.mustID(t, 10, 11)}, Payment: 107000})
		require.NoError(t, err)
		assert.Equal(t, uint64(107000), res.Cost)
		assert.Equal(t, uint64(0), res.Refund)

		assert.Equal(t, uint64(7000), f.balance(t, owner))

		_, err = f.svc.Claim(testCtx(), ClaimRequest{Caller: claimer, IDs: []domain.PlotID{f.mustID(t, 11, 11)}, Payment: 106999})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientPayment))
	})

	t.Run("emits claim and dividend events", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner := domain.NewAccountID()
		f.mustClaim(t, testCtx(), owner, 100000, f.mustID(t, 10, 10))
		f.mustClaim(t, testCtx(), domain.NewAccountID(), 103500, f.mustID(t, 11, 10))

		claims := f.events.ByType(audit.EventPlotClaimed)
		require.Len(t, claims, 2)

		dividends := f.events.ByType(audit.EventClaimDividend)
		require.Len(t, dividends, 1)
		assert.Equal(t, owner.String(), dividends[0].Recipient)
		assert.Equal(t, uint64(3500), dividends[0].Amount)
	})

	t.Run("rejects claims while paused", func(t *testing.T) {
		f := newFixture(t, testParams)
		require.NoError(t, f.access.Pause(testCtx(), f.admin))

		_, err := f.svc.Claim(testCtx(), ClaimRequest{Caller: domain.NewAccountID(), IDs: []domain.PlotID{f.mustID(t, 1, 1)}, Payment: 100000})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePaused))
	})
}

func TestClaimBatch(t *testing.T) {
	t.Run("plots claimed in one batch pay no dividends to each other", func(t *testing.T) {
		f := newFixture(t, testParams)
		caller := domain.NewAccountID()

		ids := []domain.PlotID{
			f.mustID(t, 10, 10),
			f.mustID(t, 10, 11),
			f.mustID(t, 10, 12),
			f.mustID(t, 11, 12),
		}
		res, err := f.svc.ClaimBatch(testCtx(), ClaimRequest{Caller: caller, IDs: ids, Payment: 400000})
		require.NoError(t, err)
		assert.Equal(t, uint64(400000), res.Cost)
		assert.Equal(t, uint64(0), res.Refund)

		count, err := f.svc.CountByOwner(testCtx(), caller)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), count)
	})

	t.Run("rejects duplicate ids within one batch", func(t *testing.T) {
		f := newFixture(t, testParams)
		id := f.mustID(t, 5, 5)

		_, err := f.svc.ClaimBatch(testCtx(), ClaimRequest{Caller: domain.NewAccountID(), IDs: []domain.PlotID{id, id}, Payment: 400000})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("is atomic when one id is already claimed", func(t *testing.T) {
		f := newFixture(t, testParams)
		taken := f.mustID(t, 5, 5)
		f.mustClaim(t, testCtx(), domain.NewAccountID(), 100000, taken)

		caller := domain.NewAccountID()
		free := f.mustID(t, 50, 50)
		_, err := f.svc.ClaimBatch(testCtx(), ClaimRequest{Caller: caller, IDs: []domain.PlotID{free, taken}, Payment: 400000})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = f.svc.OwnerOf(testCtx(), free)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("applies metadata to every plot in the call", func(t *testing.T) {
		f := newFixture(t, testParams)
		caller := domain.NewAccountID()
		ids := []domain.PlotID{f.mustID(t, 7, 7), f.mustID(t, 90, 90)}

		meta := models.Metadata{Name: "twin estates", Description: "claimed together"}
		_, err := f.svc.ClaimBatch(testCtx(), ClaimRequest{Caller: caller, IDs: ids, Payment: 200000, Metadata: &meta})
		require.NoError(t, err)

		for _, id := range ids {
			got, err := f.svc.MetadataOf(testCtx(), id)
			require.NoError(t, err)
			assert.Equal(t, meta, got)
		}
	})
}

func TestFreeClaimAllowance(t *testing.T) {
	t.Run("waives the base price but never the dividends", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner := domain.NewAccountID()
		f.mustClaim(t, testCtx(), owner, 100000, f.mustID(t, 10, 10))

		caller := domain.NewAccountID()
		require.NoError(t, f.svc.SetFreeClaimAllowance(testCtx(), f.treasurer, caller, 1))

		// Adjacent plot: base waived, dividend still due.
		id := f.mustID(t, 11, 10)
		_, err := f.svc.Claim(testCtx(), ClaimRequest{Caller: caller, IDs: []domain.PlotID{id}, Payment: 0})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientPayment))

		res, err := f.svc.Claim(testCtx(), ClaimRequest{Caller: caller, IDs: []domain.PlotID{id}, Payment: 3500})
		require.NoError(t, err)
		assert.Equal(t, uint64(3500), res.Cost)
		assert.Equal(t, uint64(1), res.AllowanceUsed)

		remaining, err := f.svc.FreeClaimAllowance(testCtx(), caller)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), remaining)
	})

	t.Run("draws the shared pool down id by id in a batch", func(t *testing.T) {
		f := newFixture(t, testParams)
		caller := domain.NewAccountID()
		require.NoError(t, f.svc.SetFreeClaimAllowance(testCtx(), f.treasurer, caller, 2))

		ids := []domain.PlotID{f.mustID(t, 30, 30), f.mustID(t, 60, 60), f.mustID(t, 80, 80)}
		res, err := f.svc.ClaimBatch(testCtx(), ClaimRequest{Caller: caller, IDs: ids, Payment: 100000})
		require.NoError(t, err)
		assert.Equal(t, uint64(100000), res.Cost)
		assert.Equal(t, uint64(2), res.AllowanceUsed)
	})

	t.Run("only the treasurer may grant allowances", func(t *testing.T) {
		f := newFixture(t, testParams)

		err := f.svc.SetFreeClaimAllowance(testCtx(), f.admin, domain.NewAccountID(), 1)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
