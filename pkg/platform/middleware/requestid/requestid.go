// Package requestid assigns each inbound request a correlation ID used in
// structured log lines and error responses.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"landgrid/pkg/requestcontext"
)

// Header is the inbound/outbound correlation header.
const Header = "X-Request-ID"

// Middleware reuses the caller-supplied request ID when present and generates
// one otherwise. The ID is echoed back on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
