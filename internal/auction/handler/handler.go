// Package handler exposes clock auctions over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"landgrid/internal/auction/models"
	"landgrid/internal/auction/service"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/platform/httputil"
	"landgrid/pkg/requestcontext"
)

// Service defines the auction operations the HTTP layer depends on.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) error
	Auction(ctx context.Context, id domain.PlotID) (*models.Auction, error)
	CurrentPrice(ctx context.Context, id domain.PlotID) (uint64, error)
	Bid(ctx context.Context, caller domain.AccountID, id domain.PlotID, payment uint64) (*service.BidResult, error)
	Cancel(ctx context.Context, caller domain.AccountID, id domain.PlotID) error
	SetFee(ctx context.Context, caller domain.AccountID, pct uint64) error
	Balance(ctx context.Context, account domain.AccountID) (uint64, error)
	WithdrawBalance(ctx context.Context, caller domain.AccountID) (uint64, error)
	SweepFreeBalance(ctx context.Context, caller domain.AccountID) (uint64, error)
}

// Handler wires auction endpoints to the auction service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an auction handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts auction endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auctions", h.HandleCreate)
	r.Get("/auctions/{plotID}", h.HandleGet)
	r.Post("/auctions/{plotID}/bid", h.HandleBid)
	r.Delete("/auctions/{plotID}", h.HandleCancel)
	r.Get("/auctions/balance", h.HandleBalance)
	r.Post("/auctions/balance/withdraw", h.HandleWithdraw)
	r.Post("/admin/auctions/fee", h.HandleSetFee)
	r.Post("/admin/auctions/sweep", h.HandleSweep)
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

// createRequest is the HTTP request body for POST /auctions.
type createRequest struct {
	PlotID                uint64 `json:"plot_id"`
	Kind                  string `json:"kind"`
	StartPrice            uint64 `json:"start_price"`
	EndPrice              uint64 `json:"end_price"`
	DurationSeconds       int64  `json:"duration_seconds"`
	RentalDurationSeconds int64  `json:"rental_duration_seconds"`

	parsedKind models.Kind
}

func (r *createRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	kind, err := models.ParseKind(r.Kind)
	if err != nil {
		return err
	}
	r.parsedKind = kind
	if r.DurationSeconds <= 0 {
		return dErrors.New(dErrors.CodeValidation, "duration_seconds must be positive")
	}
	if r.RentalDurationSeconds < 0 {
		return dErrors.New(dErrors.CodeValidation, "rental_duration_seconds must not be negative")
	}
	return nil
}

// HandleCreate handles POST /auctions requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*createRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	err := h.service.Create(ctx, service.CreateRequest{
		Seller:         caller,
		PlotID:         domain.PlotID(req.PlotID),
		Kind:           req.parsedKind,
		StartPrice:     req.StartPrice,
		EndPrice:       req.EndPrice,
		Duration:       time.Duration(req.DurationSeconds) * time.Second,
		RentalDuration: time.Duration(req.RentalDurationSeconds) * time.Second,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "auction creation failed",
			"request_id", requestID,
			"caller", caller.String(),
			"plot_id", req.PlotID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// auctionResponse is the HTTP response for GET /auctions/{plotID}.
type auctionResponse struct {
	PlotID                uint64    `json:"plot_id"`
	Seller                string    `json:"seller"`
	Kind                  string    `json:"kind"`
	StartPrice            uint64    `json:"start_price"`
	EndPrice              uint64    `json:"end_price"`
	DurationSeconds       int64     `json:"duration_seconds"`
	StartedAt             time.Time `json:"started_at"`
	RentalDurationSeconds int64     `json:"rental_duration_seconds,omitempty"`
	CurrentPrice          uint64    `json:"current_price"`
}

// HandleGet handles GET /auctions/{plotID} requests. Public.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := plotIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	a, err := h.service.Auction(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	price, err := h.service.CurrentPrice(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, auctionResponse{
		PlotID:                uint64(a.PlotID),
		Seller:                a.Seller.String(),
		Kind:                  string(a.Kind),
		StartPrice:            a.StartPrice,
		EndPrice:              a.EndPrice,
		DurationSeconds:       int64(a.Duration / time.Second),
		StartedAt:             a.StartedAt,
		RentalDurationSeconds: int64(a.RentalDuration / time.Second),
		CurrentPrice:          price,
	})
}

// bidRequest is the HTTP request body for POST /auctions/{plotID}/bid.
type bidRequest struct {
	Payment uint64 `json:"payment"`
}

func (r *bidRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Payment == 0 {
		return dErrors.New(dErrors.CodeValidation, "payment is required")
	}
	return nil
}

// bidResponse is the HTTP response for POST /auctions/{plotID}/bid.
type bidResponse struct {
	Price  uint64 `json:"price"`
	Refund uint64 `json:"refund"`
	Fee    uint64 `json:"fee"`
}

// HandleBid handles POST /auctions/{plotID}/bid requests.
func (h *Handler) HandleBid(w http.ResponseWriter, r *http.Request) {
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
	req, ok := httputil.DecodeAndPrepare[*bidRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Bid(ctx, caller, id, req.Payment)
	if err != nil {
		h.logger.ErrorContext(ctx, "bid failed",
			"request_id", requestID,
			"caller", caller.String(),
			"plot_id", uint64(id),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, bidResponse{
		Price:  result.Price,
		Refund: result.Refund,
		Fee:    result.Fee,
	})
}

// HandleCancel handles DELETE /auctions/{plotID} requests.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	id, err := plotIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Cancel(ctx, caller, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// balanceResponse is the HTTP response for GET /auctions/balance.
type balanceResponse struct {
	Owed uint64 `json:"owed"`
}

// HandleBalance handles GET /auctions/balance requests.
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
	httputil.WriteJSON(w, http.StatusOK, balanceResponse{Owed: owed})
}

// withdrawResponse is the HTTP response for withdraw and sweep endpoints.
type withdrawResponse struct {
	Amount uint64 `json:"amount"`
}

// HandleWithdraw handles POST /auctions/balance/withdraw requests.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	amount, err := h.service.WithdrawBalance(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, withdrawResponse{Amount: amount})
}

// feeRequest is the HTTP request body for POST /admin/auctions/fee.
type feeRequest struct {
	Percentage uint64 `json:"percentage"`
}

func (r *feeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// HandleSetFee handles POST /admin/auctions/fee requests.
func (h *Handler) HandleSetFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*feeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetFee(ctx, caller, req.Percentage); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSweep handles POST /admin/auctions/sweep requests.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	amount, err := h.service.SweepFreeBalance(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, withdrawResponse{Amount: amount})
}
