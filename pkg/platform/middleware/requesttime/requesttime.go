// Package requesttime provides middleware for request-scoped time. Every
// operation within a single HTTP request observes the same "now", which keeps
// lazy rental-expiry checks and audit timestamps consistent across a request.
package requesttime

import (
	"net/http"
	"time"

	"landgrid/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and stores
// it in the context for all downstream reads of requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		ctx := requestcontext.WithTime(r.Context(), now)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
