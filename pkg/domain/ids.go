// Package domain defines the typed identifiers shared across the land
// registry. Wrapping uuid.UUID and uint64 in distinct types makes it a
// compile error to pass a plot where an account is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "landgrid/pkg/domain-errors"
)

// AccountID identifies a participant (plot owner, renter, bidder, admin).
// The zero value is the null identity and is never a valid owner.
type AccountID uuid.UUID

// PlotID is the scalar identifier of one grid cell: y*2^W + x for grid
// bit-width W. Validity depends on the configured grid, see internal/grid.
type PlotID uint64

func (a AccountID) String() string {
	return uuid.UUID(a).String()
}

// IsZero reports whether the account is the null identity.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// ParseAccountID parses and validates an account identifier.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id cannot be the nil UUID")
	}
	return AccountID(parsed), nil
}

// NewAccountID generates a fresh random account identifier.
func NewAccountID() AccountID {
	return AccountID(uuid.New())
}
