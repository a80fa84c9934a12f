package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	accessmodels "landgrid/internal/access/models"
	accessservice "landgrid/internal/access/service"
	statestore "landgrid/internal/access/store/state"
	"landgrid/internal/grid"
	"landgrid/internal/registry/models"
	"landgrid/internal/registry/service"
	allowancestore "landgrid/internal/registry/store/allowance"
	balancestore "landgrid/internal/registry/store/balance"
	plotstore "landgrid/internal/registry/store/plot"
	paramsstore "landgrid/internal/registry/store/params"
	"landgrid/pkg/domain"
	"landgrid/pkg/requestcontext"
)

var handlerNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router    chi.Router
	grid      *grid.Grid
	treasurer domain.AccountID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	g, err := grid.New(grid.DefaultWidth)
	if err != nil {
		t.Fatalf("failed to build grid: %v", err)
	}

	admin := domain.NewAccountID()
	treasurer := domain.NewAccountID()
	access := accessservice.New(statestore.NewMemory(accessmodels.State{
		Administrator: admin,
		Treasurer:     treasurer,
	}))

	svc := service.New(g,
		plotstore.NewMemory(),
		balancestore.NewMemory(),
		paramsstore.NewMemory(models.Params{
			UnclaimedPlotPrice:       100000,
			ClaimDividendPercentage:  3500,
			BuyoutDividendPercentage: 5000,
			BuyoutFeePercentage:      3500,
		}),
		allowancestore.NewMemory(),
		access,
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(svc, g, logger)

	router := chi.NewRouter()
	// Stand-in for the auth and request-time middleware: the caller account
	// arrives in a plain header.
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), handlerNow)
			if raw := r.Header.Get("X-Test-Account"); raw != "" {
				account, err := domain.ParseAccountID(raw)
				if err != nil {
					t.Fatalf("bad test account header: %v", err)
				}
				ctx = requestcontext.WithCaller(ctx, account)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.Register(router)

	return &testEnv{router: router, grid: g, treasurer: treasurer}
}

func (e *testEnv) do(t *testing.T, method, path string, caller domain.AccountID, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if !caller.IsZero() {
		req.Header.Set("X-Test-Account", caller.String())
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func (e *testEnv) plotID(t *testing.T, x, y uint64) uint64 {
	t.Helper()
	id, err := e.grid.ToID(x, y)
	if err != nil {
		t.Fatalf("failed to encode plot id: %v", err)
	}
	return uint64(id)
}

func TestClaimEndpoint(t *testing.T) {
	env := newTestEnv(t)
	owner := domain.NewAccountID()
	id := env.plotID(t, 42, 17)

	rec := env.do(t, http.MethodPost, "/plots/claim", owner, map[string]any{
		"plot_ids": []uint64{id},
		"payment":  150000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 claiming plot, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[claimResponse](t, rec)
	if resp.Cost != 100000 {
		t.Fatalf("expected cost 100000, got %d", resp.Cost)
	}
	if resp.Refund != 50000 {
		t.Fatalf("expected refund 50000, got %d", resp.Refund)
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/plots/%d", id), domain.AccountID{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reading plot, got %d", rec.Code)
	}
	plot := decodeBody[plotResponse](t, rec)
	if plot.Owner != owner.String() {
		t.Fatalf("expected owner %s, got %s", owner, plot.Owner)
	}
	if plot.X != 42 || plot.Y != 17 {
		t.Fatalf("expected coordinates (42, 17), got (%d, %d)", plot.X, plot.Y)
	}
	if plot.URI == "" {
		t.Fatalf("expected a metadata URI")
	}
}

func TestClaimRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/plots/claim", domain.AccountID{}, map[string]any{
		"plot_ids": []uint64{env.plotID(t, 1, 1)},
		"payment":  100000,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a caller, got %d", rec.Code)
	}
}

func TestClaimErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	owner := domain.NewAccountID()
	id := env.plotID(t, 5, 5)

	rec := env.do(t, http.MethodPost, "/plots/claim", owner, map[string]any{
		"plot_ids": []uint64{id},
		"payment":  99999,
	})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 for underpayment, got %d", rec.Code)
	}

	env.do(t, http.MethodPost, "/plots/claim", owner, map[string]any{
		"plot_ids": []uint64{id},
		"payment":  100000,
	})
	rec = env.do(t, http.MethodPost, "/plots/claim", domain.NewAccountID(), map[string]any{
		"plot_ids": []uint64{id},
		"payment":  100000,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a double claim, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/plots/claim", owner, map[string]any{
		"plot_ids": []uint64{uint64(1) << 40},
		"payment":  100000,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an out-of-range id, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/plots/claim", owner, map[string]any{
		"plot_ids": []uint64{},
		"payment":  100000,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty batch, got %d", rec.Code)
	}
}

func TestTransferAndRentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	owner, to, renter := domain.NewAccountID(), domain.NewAccountID(), domain.NewAccountID()
	id := env.plotID(t, 9, 9)

	env.do(t, http.MethodPost, "/plots/claim", owner, map[string]any{
		"plot_ids": []uint64{id},
		"payment":  100000,
	})

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/plots/%d/rent", id), owner, map[string]any{
		"to":               renter.String(),
		"duration_seconds": 3600,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 renting plot, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/plots/transfer", owner, map[string]any{
		"to":       to.String(),
		"plot_ids": []uint64{id},
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 transferring plot, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/plots/%d", id), domain.AccountID{}, nil)
	plot := decodeBody[plotResponse](t, rec)
	if plot.Owner != to.String() {
		t.Fatalf("expected new owner %s, got %s", to, plot.Owner)
	}
	if plot.Renter != renter.String() {
		t.Fatalf("expected rental to survive the transfer")
	}
}

func TestBuyoutEndpoints(t *testing.T) {
	env := newTestEnv(t)
	seller, buyer := domain.NewAccountID(), domain.NewAccountID()
	id := env.plotID(t, 30, 30)

	env.do(t, http.MethodPost, "/plots/claim", seller, map[string]any{
		"plot_ids": []uint64{id},
		"payment":  100000,
	})

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/plots/%d/buyout", id), domain.AccountID{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 quoting buyout, got %d", rec.Code)
	}
	quote := decodeBody[buyoutQuoteResponse](t, rec)
	if quote.TotalCost != 250000 {
		t.Fatalf("expected quote 250000, got %d", quote.TotalCost)
	}

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/plots/%d/buyout", id), buyer, map[string]any{
		"payment": quote.TotalCost,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 buying out, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[buyoutResponse](t, rec)
	if result.NewBuyoutPrice != 625000 {
		t.Fatalf("expected escalated price 625000, got %d", result.NewBuyoutPrice)
	}

	// The seller's proceeds are withdrawable.
	rec = env.do(t, http.MethodPost, "/balance/withdraw", seller, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 withdrawing, got %d", rec.Code)
	}
	withdrawal := decodeBody[withdrawResponse](t, rec)
	if withdrawal.Amount != result.SellerProceeds {
		t.Fatalf("expected withdrawal %d, got %d", result.SellerProceeds, withdrawal.Amount)
	}

	rec = env.do(t, http.MethodPost, "/balance/withdraw", seller, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on an empty balance, got %d", rec.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	price := uint64(200000)

	rec := env.do(t, http.MethodPost, "/admin/params", domain.NewAccountID(), map[string]any{
		"unclaimed_plot_price": price,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-treasurer, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/admin/params", env.treasurer, map[string]any{
		"unclaimed_plot_price": price,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating params, got %d: %s", rec.Code, rec.Body.String())
	}
	params := decodeBody[paramsResponse](t, rec)
	if params.UnclaimedPlotPrice != price {
		t.Fatalf("expected updated price %d, got %d", price, params.UnclaimedPlotPrice)
	}

	account := domain.NewAccountID()
	rec = env.do(t, http.MethodPost, "/admin/allowances", env.treasurer, map[string]any{
		"account": account.String(),
		"amount":  3,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 granting allowance, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/balance", account, nil)
	balance := decodeBody[balanceResponse](t, rec)
	if balance.FreeClaimAllowance != 3 {
		t.Fatalf("expected allowance 3, got %d", balance.FreeClaimAllowance)
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	owner := domain.NewAccountID()
	env.do(t, http.MethodPost, "/plots/claim", owner, map[string]any{
		"plot_ids": []uint64{env.plotID(t, 1, 1), env.plotID(t, 100, 100)},
		"payment":  200000,
	})

	rec := env.do(t, http.MethodGet, "/stats?owner="+owner.String(), domain.AccountID{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reading stats, got %d", rec.Code)
	}
	stats := decodeBody[statsResponse](t, rec)
	if stats.ClaimedPlots != 2 {
		t.Fatalf("expected 2 claimed plots, got %d", stats.ClaimedPlots)
	}
	if stats.OwnedPlots == nil || *stats.OwnedPlots != 2 {
		t.Fatalf("expected owner to hold 2 plots")
	}
}
