package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
)

func TestWithdraw(t *testing.T) {
	t.Run("releases the full balance and zeroes it", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, neighbor := domain.NewAccountID(), domain.NewAccountID()
		f.mustClaim(t, testCtx(), neighbor, 100000, f.mustID(t, 10, 10))
		f.mustClaim(t, testCtx(), owner, 103500, f.mustID(t, 10, 11))

		amount, err := f.svc.Withdraw(testCtx(), neighbor)
		require.NoError(t, err)
		assert.Equal(t, uint64(3500), amount)
		assert.Zero(t, f.balance(t, neighbor))

		_, err = f.svc.Withdraw(testCtx(), neighbor)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("is blocked while paused", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, neighbor := domain.NewAccountID(), domain.NewAccountID()
		f.mustClaim(t, testCtx(), neighbor, 100000, f.mustID(t, 10, 10))
		f.mustClaim(t, testCtx(), owner, 103500, f.mustID(t, 10, 11))
		require.NoError(t, f.access.Pause(testCtx(), f.admin))

		_, err := f.svc.Withdraw(testCtx(), neighbor)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePaused))
	})
}

func TestWithdrawProtocolBalance(t *testing.T) {
	t.Run("sweeps base claim proceeds to the treasurer", func(t *testing.T) {
		f := newFixture(t, testParams)
		f.mustClaim(t, testCtx(), domain.NewAccountID(), 100000, f.mustID(t, 10, 10))

		amount, err := f.svc.WithdrawProtocolBalance(testCtx(), f.treasurer)
		require.NoError(t, err)
		assert.Equal(t, uint64(100000), amount)

		_, err = f.svc.WithdrawProtocolBalance(testCtx(), f.treasurer)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("never touches individual balances", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, neighbor := domain.NewAccountID(), domain.NewAccountID()
		f.mustClaim(t, testCtx(), neighbor, 100000, f.mustID(t, 10, 10))
		f.mustClaim(t, testCtx(), owner, 103500, f.mustID(t, 10, 11))

		_, err := f.svc.WithdrawProtocolBalance(testCtx(), f.treasurer)
		require.NoError(t, err)
		assert.Equal(t, uint64(3500), f.balance(t, neighbor))
	})

	t.Run("works while paused and rejects non-treasurers", func(t *testing.T) {
		f := newFixture(t, testParams)
		f.mustClaim(t, testCtx(), domain.NewAccountID(), 100000, f.mustID(t, 10, 10))
		require.NoError(t, f.access.Pause(testCtx(), f.admin))

		_, err := f.svc.WithdrawProtocolBalance(testCtx(), f.admin)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		_, err = f.svc.WithdrawProtocolBalance(testCtx(), f.treasurer)
		require.NoError(t, err)
	})
}

func TestParamUpdates(t *testing.T) {
	t.Run("treasurer adjusts the economic configuration", func(t *testing.T) {
		f := newFixture(t, testParams)

		require.NoError(t, f.svc.SetUnclaimedPlotPrice(testCtx(), f.treasurer, 200000))
		require.NoError(t, f.svc.SetClaimDividendPercentage(testCtx(), f.treasurer, 20000))
		require.NoError(t, f.svc.SetBuyoutDividendPercentage(testCtx(), f.treasurer, 75000))
		require.NoError(t, f.svc.SetBuyoutFeePercentage(testCtx(), f.treasurer, 6000))

		params, err := f.svc.Params(testCtx())
		require.NoError(t, err)
		assert.Equal(t, uint64(200000), params.UnclaimedPlotPrice)
		assert.Equal(t, uint64(20000), params.ClaimDividendPercentage)
		assert.Equal(t, uint64(75000), params.BuyoutDividendPercentage)
		assert.Equal(t, uint64(6000), params.BuyoutFeePercentage)
	})

	t.Run("updates take effect on the next claim", func(t *testing.T) {
		f := newFixture(t, testParams)
		require.NoError(t, f.svc.SetUnclaimedPlotPrice(testCtx(), f.treasurer, 200000))

		res := f.mustClaim(t, testCtx(), domain.NewAccountID(), 200000, f.mustID(t, 10, 10))
		assert.Equal(t, uint64(200000), res.Cost)
	})

	t.Run("rejects out-of-range values", func(t *testing.T) {
		f := newFixture(t, testParams)

		for _, tc := range []struct {
			name string
			err  error
		}{
			{"price above the ceiling", f.svc.SetUnclaimedPlotPrice(testCtx(), f.treasurer, uint64(1)<<47+1)},
			{"zero dividend", f.svc.SetClaimDividendPercentage(testCtx(), f.treasurer, 0)},
			{"dividend above 100%", f.svc.SetBuyoutDividendPercentage(testCtx(), f.treasurer, 10000000)},
			{"fee above the cap", f.svc.SetBuyoutFeePercentage(testCtx(), f.treasurer, 6001)},
		} {
			t.Run(tc.name, func(t *testing.T) {
				require.Error(t, tc.err)
				assert.True(t, dErrors.HasCode(tc.err, dErrors.CodeValidation))
			})
		}
	})

	t.Run("rejects non-treasurers", func(t *testing.T) {
		f := newFixture(t, testParams)

		err := f.svc.SetUnclaimedPlotPrice(testCtx(), f.admin, 200000)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestCustody(t *testing.T) {
	t.Run("approval-gated custody round trip", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, operator, winner := domain.NewAccountID(), domain.NewAccountID(), domain.NewAccountID()
		id := f.mustID(t, 10, 10)
		f.mustClaim(t, testCtx(), owner, 100000, id)

		err := f.svc.TransferCustodyIn(testCtx(), operator, owner, id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		require.NoError(t, f.svc.Approve(testCtx(), owner, operator, id))

		approved, err := f.svc.IsApprovedForCustody(testCtx(), id, operator)
		require.NoError(t, err)
		assert.True(t, approved)

		require.NoError(t, f.svc.TransferCustodyIn(testCtx(), operator, owner, id))
		require.NoError(t, f.svc.TransferCustodyOut(testCtx(), operator, winner, id))

		got, err := f.svc.OwnerOf(testCtx(), id)
		require.NoError(t, err)
		assert.Equal(t, winner, got)
	})

	t.Run("custody moves are exempt from the pause gate", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, operator := domain.NewAccountID(), domain.NewAccountID()
		id := f.mustID(t, 10, 10)
		f.mustClaim(t, testCtx(), owner, 100000, id)
		require.NoError(t, f.svc.Approve(testCtx(), owner, operator, id))
		require.NoError(t, f.svc.TransferCustodyIn(testCtx(), operator, owner, id))
		require.NoError(t, f.access.Pause(testCtx(), f.admin))

		require.NoError(t, f.svc.TransferCustodyOut(testCtx(), operator, owner, id))
	})

	t.Run("grant rental requires custody and a free plot", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, operator, renter := domain.NewAccountID(), domain.NewAccountID(), domain.NewAccountID()
		id := f.mustID(t, 10, 10)
		f.mustClaim(t, testCtx(), owner, 100000, id)

		err := f.svc.GrantRental(testCtx(), operator, renter, time.Hour, id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		require.NoError(t, f.svc.Approve(testCtx(), owner, operator, id))
		require.NoError(t, f.svc.TransferCustodyIn(testCtx(), operator, owner, id))
		require.NoError(t, f.svc.GrantRental(testCtx(), operator, renter, time.Hour, id))

		got, _, err := f.svc.RenterOf(testCtx(), id)
		require.NoError(t, err)
		assert.Equal(t, renter, got)

		err = f.svc.GrantRental(testCtx(), operator, domain.NewAccountID(), time.Hour, id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("credited beneficiary proceeds land in the treasury", func(t *testing.T) {
		f := newFixture(t, testParams)
		before, err := f.svc.ProtocolBalance(testCtx())
		require.NoError(t, err)

		require.NoError(t, f.svc.CreditBeneficiary(testCtx(), 12345))

		after, err := f.svc.ProtocolBalance(testCtx())
		require.NoError(t, err)
		assert.Equal(t, uint64(12345), after-before)
	})
}
