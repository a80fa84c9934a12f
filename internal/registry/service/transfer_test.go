package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landgrid/internal/audit"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
)

func TestTransfer(t *testing.T) {
	t.Run("moves ownership to the recipient", func(t *testing.T) {
		f := newFixture(t, testParams)
		from, to := domain.NewAccountID(), domain.NewAccountID()
		id := f.mustID(t, 7, 7)
		f.mustClaim(t, testCtx(), from, 100000, id)

		require.NoError(t, f.svc.Transfer(testCtx(), from, to, id))

		owner, err := f.svc.OwnerOf(testCtx(), id)
		require.NoError(t, err)
		assert.Equal(t, to, owner)

		events := f.events.ByType(audit.EventPlotTransferred)
		require.Len(t, events, 1)
		assert.Equal(t, from.String(), events[0].Actor)
		assert.Equal(t, to.String(), events[0].Recipient)
	})

	t.Run("only the owner may transfer", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner := domain.NewAccountID()
		id := f.mustID(t, 7, 7)
		f.mustClaim(t, testCtx(), owner, 100000, id)

		err := f.svc.Transfer(testCtx(), domain.NewAccountID(), domain.NewAccountID(), id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("a renter may not transfer", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, renter := domain.NewAccountID(), domain.NewAccountID()
		id := f.mustID(t, 7, 7)
		f.mustClaim(t, testCtx(), owner, 100000, id)
		require.NoError(t, f.svc.RentOut(testCtx(), owner, renter, time.Hour, id))

		err := f.svc.Transfer(testCtx(), renter, domain.NewAccountID(), id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("an active rental survives the transfer", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, renter, to := domain.NewAccountID(), domain.NewAccountID(), domain.NewAccountID()
		id := f.mustID(t, 7, 7)
		f.mustClaim(t, testCtx(), owner, 100000, id)
		require.NoError(t, f.svc.RentOut(testCtx(), owner, renter, time.Hour, id))
		require.NoError(t, f.svc.Transfer(testCtx(), owner, to, id))

		got, until, err := f.svc.RenterOf(testCtx(), id)
		require.NoError(t, err)
		assert.Equal(t, renter, got)
		assert.Equal(t, testNow.Add(time.Hour), until)
	})

	t.Run("rejects a null recipient and an unclaimed plot", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner := domain.NewAccountID()
		id := f.mustID(t, 7, 7)
		f.mustClaim(t, testCtx(), owner, 100000, id)

		err := f.svc.Transfer(testCtx(), owner, domain.AccountID{}, id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		err = f.svc.Transfer(testCtx(), owner, domain.NewAccountID(), f.mustID(t, 8, 8))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("batch transfers are all or nothing", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, to := domain.NewAccountID(), domain.NewAccountID()
		mine := f.mustID(t, 7, 7)
		theirs := f.mustID(t, 9, 9)
		f.mustClaim(t, testCtx(), owner, 100000, mine)
		f.mustClaim(t, testCtx(), domain.NewAccountID(), 100000, theirs)

		err := f.svc.TransferBatch(testCtx(), owner, to, []domain.PlotID{mine, theirs})
		require.Error(t, err)

		owner2, err := f.svc.OwnerOf(testCtx(), mine)
		require.NoError(t, err)
		assert.Equal(t, owner, owner2)
	})
}

func TestApproveAndTakeOwnership(t *testing.T) {
	t.Run("an approved account may take ownership", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, approved := domain.NewAccountID(), domain.NewAccountID()
		id := f.mustID(t, 7, 7)
		f.mustClaim(t, testCtx(), owner, 100000, id)

		require.NoError(t, f.svc.Approve(testCtx(), owner, approved, id))
		require.NoError(t, f.svc.TakeOwnership(testCtx(), approved, id))

		got, err := f.svc.OwnerOf(testCtx(), id)
		require.NoError(t, err)
		assert.Equal(t, approved, got)
	})

	t.Run("only the owner may approve", func(t *testing.T) {
		f := newFixture(t, testParams)
		id := f.mustID(t, 7, 7)
		f.mustClaim(t, testCtx(), domain.NewAccountID(), 100000, id)

		err := f.svc.Approve(testCtx(), domain.NewAccountID(), domain.NewAccountID(), id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("an unapproved account may not take ownership", func(t *testing.T) {
		f := newFixture(t, testParams)
		id := f.mustID(t, 7, 7)
		f.mustClaim(t, testCtx(), domain.NewAccountID(), 100000, id)

		err := f.svc.TakeOwnership(testCtx(), domain.NewAccountID(), id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("a transfer invalidates an earlier approval", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, approved, to := domain.NewAccountID(), domain.NewAccountID(), domain.NewAccountID()
		id := f.mustID(t, 7, 7)
		f.mustClaim(t, testCtx(), owner, 100000, id)
		require.NoError(t, f.svc.Approve(testCtx(), owner, approved, id))
		require.NoError(t, f.svc.Transfer(testCtx(), owner, to, id))

		err := f.svc.TakeOwnership(testCtx(), approved, id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("a buyout invalidates an earlier approval", func(t *testing.T) {
		f := newFixture(t, testParams)
		owner, approved := domain.NewAccountID(), domain.NewAccountID()
		id := f.mustID(t, 7, 7)
		f.mustClaim(t, testCtx(), owner, 100000, id)
		require.NoError(t, f.svc.Approve(testCtx(), owner, approved, id))

		_, err := f.svc.Buyout(testCtx(), BuyoutRequest{Caller: domain.NewAccountID(), ID: id, Payment: 250000})
		require.NoError(t, err)

		err = f.svc.TakeOwnership(testCtx(), approved, id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
