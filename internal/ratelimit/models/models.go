// Package models defines the rate-limit vocabulary shared by the bucket
// stores, the limiter service, and the HTTP middleware.
package models

import "time"

// EndpointClass categorizes endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassRead covers plot, price, and balance queries.
	ClassRead EndpointClass = "read"
	// ClassWrite covers claims, transfers, rentals, bids, and withdrawals.
	ClassWrite EndpointClass = "write"
	// ClassAdmin covers treasurer and administrator operations.
	ClassAdmin EndpointClass = "admin"
)

// IsValid checks if the endpoint class is one of the supported enum values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassRead, ClassWrite, ClassAdmin:
		return true
	}
	return false
}

// Limit is the request budget for one endpoint class.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits returns the per-class budgets used when no override is
// configured. Reads dominate traffic, so they get the largest budget.
func DefaultLimits() map[EndpointClass]Limit {
	return map[EndpointClass]Limit{
		ClassRead:  {Requests: 600, Window: time.Minute},
		ClassWrite: {Requests: 120, Window: time.Minute},
		ClassAdmin: {Requests: 30, Window: time.Minute},
	}
}

// RateLimitResult reports the outcome of one limiter check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// RateLimitExceededResponse is the wire shape of a 429 body.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
