package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	accessmodels "landgrid/internal/access/models"
	accessservice "landgrid/internal/access/service"
	statestore "landgrid/internal/access/store/state"
	"landgrid/internal/audit"
	auditmem "landgrid/internal/audit/store/memory"
	"landgrid/internal/grid"
	"landgrid/internal/registry/models"
	allowancestore "landgrid/internal/registry/store/allowance"
	balancestore "landgrid/internal/registry/store/balance"
	plotstore "landgrid/internal/registry/store/plot"
	paramsstore "landgrid/internal/registry/store/params"
	"landgrid/pkg/domain"
	"landgrid/pkg/requestcontext"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

// testParams uses a base price of 100000 units so percentage arithmetic in
// parts per 100000 stays exact.
var testParams = models.Params{
	UnclaimedPlotPrice:       100000,
	ClaimDividendPercentage:  3500,
	BuyoutDividendPercentage: 5000,
	BuyoutFeePercentage:      3500,
}

type fixture struct {
	svc       *Service
	access    *accessservice.Service
	events    *auditmem.Store
	g         *grid.Grid
	admin     domain.AccountID
	treasurer domain.AccountID
}

func newFixture(t *testing.T, params models.Params, opts ...Option) *fixture {
	t.Helper()

	g, err := grid.New(grid.DefaultWidth)
	require.NoError(t, err)

	admin := domain.NewAccountID()
	treasurer := domain.NewAccountID()
	access := accessservice.New(statestore.NewMemory(accessmodels.State{
		Administrator: admin,
		Treasurer:     treasurer,
	}))

	events := auditmem.New()
	publisher := audit.NewPublisher([]audit.Store{events})

	opts = append(opts, WithAuditPublisher(publisher))
	svc := New(g,
		plotstore.NewMemory(),
		balancestore.NewMemory(),
		paramsstore.NewMemory(params),
		allowancestore.NewMemory(),
		access,
		opts...,
	)
	return &fixture{svc: svc, access: access, events: events, g: g, admin: admin, treasurer: treasurer}
}

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), testNow)
}

func ctxAt(at time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), at)
}

func (f *fixture) mustID(t *testing.T, x, y uint64) domain.PlotID {
	t.Helper()
	id, err := f.g.ToID(x, y)
	require.NoError(t, err)
	return id
}

func (f *fixture) mustClaim(t *testing.T, ctx context.Context, caller domain.AccountID, payment uint64, ids ...domain.PlotID) *ClaimResult {
	t.Helper()
	res, err := f.svc.ClaimBatch(ctx, ClaimRequest{Caller: caller, IDs: ids, Payment: payment})
	require.NoError(t, err)
	return res
}

func (f *fixture) balance(t *testing.T, account domain.AccountID) uint64 {
	t.Helper()
	amount, err := f.svc.Balance(testCtx(), account)
	require.NoError(t, err)
	return amount
}
