// Package httptransport assembles the HTTP surface: middleware chain,
// feature handlers, and operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accesshandler "landgrid/internal/access/handler"
	auctionhandler "landgrid/internal/auction/handler"
	ratelimitmw "landgrid/internal/ratelimit/middleware"
	"landgrid/internal/ratelimit/models"
	registryhandler "landgrid/internal/registry/handler"
	"landgrid/pkg/platform/httputil"
	authmw "landgrid/pkg/platform/middleware/auth"
	metadata "landgrid/pkg/platform/middleware/metadata"
	"landgrid/pkg/platform/middleware/requestid"
	"landgrid/pkg/platform/middleware/requesttime"
)

// Deps carries everything the router mounts. RateLimit may be nil when
// limiting is disabled outright.
type Deps struct {
	Logger    *slog.Logger
	Validator authmw.TokenValidator
	RateLimit *ratelimitmw.Middleware

	Registry *registryhandler.Handler
	Access   *accesshandler.Handler
	Auction  *auctionhandler.Handler

	// HealthChecks run on /healthz; each failure marks the process unhealthy.
	HealthChecks map[string]func(ctx context.Context) error
}

// NewRouter wires all endpoints behind the shared middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", healthHandler(deps.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(authmw.OptionalAuth(deps.Validator, deps.Logger))
		if deps.RateLimit != nil {
			api.Use(deps.RateLimit.RateLimitByClass(classify))
		}

		deps.Registry.Register(api)
		deps.Access.Register(api)
		deps.Auction.Register(api)
	})

	return r
}

// classify maps a request to its rate-limit budget. Admin routes get the
// tightest budget, reads the loosest.
func classify(r *http.Request) models.EndpointClass {
	if strings.HasPrefix(r.URL.Path, "/admin/") {
		return models.ClassAdmin
	}
	if r.Method == http.MethodGet {
		return models.ClassRead
	}
	return models.ClassWrite
}

func healthHandler(checks map[string]func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		result := make(map[string]string, len(checks)+1)
		result["status"] = "ok"
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				result["status"] = "degraded"
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		httputil.WriteJSON(w, status, result)
	}
}
