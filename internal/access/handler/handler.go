// Package handler exposes registry governance over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"landgrid/internal/access/models"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
	"landgrid/pkg/platform/httputil"
	"landgrid/pkg/requestcontext"
)

// Service defines the governance operations the HTTP layer depends on.
type Service interface {
	State(ctx context.Context) (models.State, error)
	TransferOwnership(ctx context.Context, caller, to domain.AccountID) error
	ClaimOwnership(ctx context.Context, caller domain.AccountID) error
	SetTreasurer(ctx context.Context, caller, to domain.AccountID) error
	Pause(ctx context.Context, caller domain.AccountID) error
	Unpause(ctx context.Context, caller domain.AccountID) error
	SetUpgradedTarget(ctx context.Context, caller domain.AccountID, target string) error
}

// Handler wires governance endpoints to the access service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an access handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts governance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/state", h.HandleState)
	r.Post("/admin/pause", h.HandlePause)
	r.Post("/admin/unpause", h.HandleUnpause)
	r.Post("/admin/ownership/transfer", h.HandleTransferOwnership)
	r.Post("/admin/ownership/claim", h.HandleClaimOwnership)
	r.Post("/admin/treasurer", h.HandleSetTreasurer)
	r.Post("/admin/upgrade-target", h.HandleSetUpgradeTarget)
}

func requireCaller(ctx context.Context, w http.ResponseWriter) (domain.AccountID, bool) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.AccountID{}, false
	}
	return caller, true
}

// stateResponse is the HTTP response for GET /admin/state.
type stateResponse struct {
	Administrator        string `json:"administrator"`
	PendingAdministrator string `json:"pending_administrator,omitempty"`
	Treasurer            string `json:"treasurer"`
	Paused               bool   `json:"paused"`
	UpgradedTo           string `json:"upgraded_to,omitempty"`
}

// HandleState handles GET /admin/state requests. Public.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := stateResponse{
		Administrator: state.Administrator.String(),
		Treasurer:     state.Treasurer.String(),
		Paused:        state.Paused,
		UpgradedTo:    state.UpgradedTo,
	}
	if !state.PendingAdministrator.IsZero() {
		resp.PendingAdministrator = state.PendingAdministrator.String()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandlePause handles POST /admin/pause requests.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.Pause, "registry paused")
}

// HandleUnpause handles POST /admin/unpause requests.
func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.Unpause, "registry unpaused")
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.AccountID) error, msg string) {
	ctx := r.Context()

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	if err := op(ctx, caller); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, msg,
		"caller", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

// accountRequest is the HTTP request body for endpoints naming one account.
type accountRequest struct {
	Account string `json:"account"`

	parsed domain.AccountID
}

func (r *accountRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Account = strings.TrimSpace(r.Account)
	if r.Account == "" {
		return dErrors.New(dErrors.CodeValidation, "account is required")
	}
	account, err := domain.ParseAccountID(r.Account)
	if err != nil {
		return err
	}
	r.parsed = account
	return nil
}

// HandleTransferOwnership handles POST /admin/ownership/transfer requests.
func (h *Handler) HandleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*accountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.TransferOwnership(ctx, caller, req.parsed); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClaimOwnership handles POST /admin/ownership/claim requests.
func (h *Handler) HandleClaimOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	if err := h.service.ClaimOwnership(ctx, caller); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetTreasurer handles POST /admin/treasurer requests.
func (h *Handler) HandleSetTreasurer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*accountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetTreasurer(ctx, caller, req.parsed); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// upgradeTargetRequest is the HTTP request body for POST /admin/upgrade-target.
type upgradeTargetRequest struct {
	Target string `json:"target"`
}

func (r *upgradeTargetRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Target) == "" {
		return dErrors.New(dErrors.CodeValidation, "target is required")
	}
	return nil
}

// HandleSetUpgradeTarget handles POST /admin/upgrade-target requests.
func (h *Handler) HandleSetUpgradeTarget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := requireCaller(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[*upgradeTargetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetUpgradedTarget(ctx, caller, req.Target); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
