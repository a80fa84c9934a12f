// Package handler exposes the land registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"landgrid/internal/grid"
	"landgrid/internal/registry/models"
	"landgrid/internal/registry/service"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/platform/httputil"
	"landgrid/pkg/requestcontext"
)

// Service defines the registry operations the HTTP layer depends on.
type Service interface {
	ClaimBatch(ctx context.Context, req service.ClaimRequest) (*service.ClaimResult, error)
	TransferBatch(ctx context.Context, caller, to domain.AccountID, ids []domain.PlotID) error
	ApproveBatch(ctx context.Context, caller, to domain.AccountID, ids []domain.PlotID) error
	TakeOwnershipBatch(ctx context.Context, caller domain.AccountID, ids []domain.PlotID) error
	RentOut(ctx context.Context, caller, to domain.AccountID, duration time.Duration, id domain.PlotID) error
	SetPlotDataBatch(ctx context.Context, caller domain.AccountID, ids []domain.PlotID, meta models.Metadata) error
	Buyout(ctx context.Context, req service.BuyoutRequest) (*service.BuyoutResult, error)
	BuyoutCost(ctx context.Context, id domain.PlotID) (*service.BuyoutQuote, error)
	SetInitialBuyoutPrice(ctx context.Context, caller domain.AccountID, id domain.PlotID, price uint64) error

	Withdraw(ctx context.Context, caller domain.AccountID) (uint64, error)
	WithdrawProtocolBalance(ctx context.Context, caller domain.AccountID) (uint64, error)
	SetUnclaimedPlotPrice(ctx context.Context, caller domain.AccountID, price uint64) error
	SetClaimDividendPercentage(ctx context.Context, caller domain.AccountID, pct uint64) error
	SetBuyoutDividendPercentage(ctx context.Context, caller domain.AccountID, pct uint64) error
	SetBuyoutFeePercentage(ctx context.Context, caller domain.AccountID, pct uint64) error
	SetFreeClaimAllowance(ctx context.Context, caller, account domain.AccountID, n uint64) error

	Plot(ctx context.Context, id domain.PlotID) (*models.Plot, error)
	RenterOf(ctx context.Context, id domain.PlotID) (domain.AccountID, time.Time, error)
	PlotURI(ctx context.Context, id domain.PlotID) (string, error)
	Count(ctx context.Context) (uint64, error)
	CountByOwner(ctx context.Context, owner domain.AccountID) (uint64, error)
	Params(ctx context.Context) (models.Params, error)
	Balance(ctx context.Context, account domain.AccountID) (uint64, error)
	ProtocolBalance(ctx context.Context) (uint64, error)
	OutstandingTotal(ctx context.Context) (uint64, error)
	FreeClaimAllowance(ctx context.Context, account domain.AccountID) (uint64, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	grid    *grid.Grid
	logger  *slog.Logger
}

// New constructs a registry handler with its dependencies.
func New(service Service, g *grid.Grid, logger *slog.Logger) *Handler {
	return &Handler{service: service, grid: g, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/plots/claim", h.HandleClaim)
	r.Post("/plots/transfer", h.HandleTransfer)
	r.Post("/plots/approve", h.HandleApprove)
	r.Post("/plots/take-ownership", h.HandleTakeOwnership)
	r.Post("/plots/metadata", h.HandleSetPlotData)
	r.Get("/plots/{plotID}", h.HandleGetPlot)
	r.Post("/plots/{plotID}/rent", h.HandleRentOut)
	r.Get("/plots/{plotID}/buyout", h.HandleBuyoutCost)
	r.Post("/plots/{plotID}/buyout", h.HandleBuyout)
	r.Post("/plots/{plotID}/buyout-price", h.HandleSetBuyoutPrice)

	r.Get("/params", h.HandleParams)
	r.Get("/stats", h.HandleStats)
	r.Get("/balance", h.HandleBalance)
	r.Post("/balance/withdraw", h.HandleWithdraw)

	r.Get("/admin/treasury", h.HandleTreasury)
	r.Post("/admin/treasury/withdraw", h.HandleWithdrawProtocol)
	r.Post("/admin/params", h.HandleUpdateParams)
	r.Post("/admin/allowances", h.HandleSetAllowance)
}

func plotIDFromURL(r *http.Request) (domain.PlotID, error) {
	raw := chi.URLParam(r, "plotID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "plot id must be a decimal integer")
	}
	return domain.PlotID(id), nil
}

func requireCaller(ctx context.Context, w http.ResponseWriter) (domain.AccountID, bool) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.AccountID{}, false
	}
	return caller, true
}

// HandleClaim handles POST /plots/claim requests.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*claimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ClaimBatch(ctx, service.ClaimRequest{
		Caller:      caller,
		IDs:         req.parsedIDs,
		BuyoutPrice: req.BuyoutPrice,
		Payment:     req.Payment,
		Metadata:    req.parsedMetadata,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "claim failed",
			"request_id", requestID,
			"caller", caller.String(),
			"plots", len(req.parsedIDs),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, fromClaimResult(result))
}

// HandleTransfer handles POST /plots/transfer requests.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*transferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.TransferBatch(ctx, caller, req.parsedTo, req.parsedIDs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleApprove handles POST /plots/approve requests.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*transferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.ApproveBatch(ctx, caller, req.parsedTo, req.parsedIDs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTakeOwnership handles POST /plots/take-ownership requests.
func (h *Handler) HandleTakeOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*plotIDsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.TakeOwnershipBatch(ctx, caller, req.parsedIDs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetPlotData handles POST /plots/metadata requests.
func (h *Handler) HandleSetPlotData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*setPlotDataRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetPlotDataBatch(ctx, caller, req.parsedIDs, req.Metadata.toModel()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetPlot handles GET /plots/{plotID} requests. Public.
func (h *Handler) HandleGetPlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := plotIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Plot(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	renter, rentedUntil, err := h.service.RenterOf(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	uri, err := h.service.PlotURI(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, fromPlot(h.grid, p, renter, rentedUntil, uri))
}

// HandleRentOut handles POST /plots/{plotID}/rent requests.
func (h *Handler) HandleRentOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	id, err := plotIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*rentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.RentOut(ctx, caller, req.parsedTo, req.duration(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBuyoutCost handles GET /plots/{plotID}/buyout requests. Public quote.
func (h *Handler) HandleBuyoutCost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := plotIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	quote, err := h.service.BuyoutCost(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromBuyoutQuote(quote))
}

// HandleBuyout handles POST /plots/{plotID}/buyout requests.
func (h *Handler) HandleBuyout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	id, err := plotIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*buyoutRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Buyout(ctx, service.BuyoutRequest{
		Caller:   caller,
		ID:       id,
		Payment:  req.Payment,
		Metadata: req.parsedMetadata,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "buyout failed",
			"request_id", requestID,
			"caller", caller.String(),
			"plot_id", uint64(id),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "buyout completed",
		"request_id", requestID,
		"caller", caller.String(),
		"plot_id", uint64(id),
		"cost", result.Cost,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromBuyoutResult(result))
}

// HandleSetBuyoutPrice handles POST /plots/{plotID}/buyout-price requests.
func (h *Handler) HandleSetBuyoutPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	id, err := plotIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*setBuyoutPriceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetInitialBuyoutPrice(ctx, caller, id, req.Price); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleParams handles GET /params requests. Public.
func (h *Handler) HandleParams(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.Params(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromParams(params))
}

// HandleStats handles GET /stats requests. Public.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.service.Count(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := statsResponse{ClaimedPlots: count, GridCapacity: h.grid.Capacity()}

	if owner := r.URL.Query().Get("owner"); owner != "" {
		account, err := domain.ParseAccountID(owner)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		owned, err := h.service.CountByOwner(ctx, account)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		resp.OwnedPlots = &owned
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleBalance handles GET /balance requests.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}

	owed, err := h.service.Balance(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	allowance, err := h.service.FreeClaimAllowance(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, balanceResponse{Owed: owed, FreeClaimAllowance: allowance})
}

// HandleWithdraw handles POST /balance/withdraw requests.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}

	amount, err := h.service.Withdraw(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, withdrawResponse{Amount: amount})
}

// HandleTreasury handles GET /admin/treasury requests. The figures are only
// meaningful to the treasurer but reading them is harmless.
func (h *Handler) HandleTreasury(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	treasury, err := h.service.ProtocolBalance(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	outstanding, err := h.service.OutstandingTotal(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, treasuryResponse{
		ProtocolBalance:  treasury,
		OutstandingTotal: outstanding,
	})
}

// HandleWithdrawProtocol handles POST /admin/treasury/withdraw requests.
func (h *Handler) HandleWithdrawProtocol(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}

	amount, err := h.service.WithdrawProtocolBalance(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, withdrawResponse{Amount: amount})
}

// HandleUpdateParams handles POST /admin/params requests. Each field is
// optional; present fields are applied in order and the first failure aborts.
func (h *Handler) HandleUpdateParams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*updateParamsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	for _, update := range []struct {
		value *uint64
		apply func(context.Context, domain.AccountID, uint64) error
	}{
		{req.UnclaimedPlotPrice, h.service.SetUnclaimedPlotPrice},
		{req.ClaimDividendPercentage, h.service.SetClaimDividendPercentage},
		{req.BuyoutDividendPercentage, h.service.SetBuyoutDividendPercentage},
		{req.BuyoutFeePercentage, h.service.SetBuyoutFeePercentage},
	} {
		if update.value == nil {
			continue
		}
		if err := update.apply(ctx, caller, *update.value); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	params, err := h.service.Params(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromParams(params))
}

// HandleSetAllowance handles POST /admin/allowances requests.
func (h *Handler) HandleSetAllowance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*setAllowanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetFreeClaimAllowance(ctx, caller, req.parsedAccount, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
