// Package models defines the clock auction record.
package models

import (
	"time"

	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
)

// Kind distinguishes what a winning bid buys.
type Kind string

const (
	// KindSale transfers ownership to the winner.
	KindSale Kind = "sale"
	// KindRent grants the winner a rental and returns the plot to the seller.
	KindRent Kind = "rent"
)

// ParseKind validates a wire-level auction kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSale, KindRent:
		return Kind(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "kind must be %q or %q", KindSale, KindRent)
	}
}

const (
	// MaxPrice keeps auction arithmetic clear of uint64 overflow, matching
	// the registry's price ceiling.
	MaxPrice uint64 = 1 << 47

	// MinDuration rejects auctions too short to price meaningfully.
	MinDuration = time.Minute
	// MaxDuration keeps elapsed-time arithmetic within int64 seconds.
	MaxDuration = time.Duration(1<<31) * time.Second

	// PercentageDenominator expresses percentages in parts per 100000.
	PercentageDenominator uint64 = 100000

	// DefaultFeePercentage is the cut retained from the winning bid.
	DefaultFeePercentage uint64 = 3500
	// MaxFeePercentage caps the retained cut at 100%.
	MaxFeePercentage = PercentageDenominator
)

// Auction is one active clock auction. The record exists only while the
// auction is live; conclusion or cancellation deletes it.
type Auction struct {
	PlotID         domain.PlotID
	Seller         domain.AccountID
	Kind           Kind
	StartPrice     uint64
	EndPrice       uint64
	Duration       time.Duration
	StartedAt      time.Time
	RentalDuration time.Duration
}

// Validate checks the structural invariants of a new auction.
func (a *Auction) Validate() error {
	if a.Seller.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "seller must not be the null identity")
	}
	if _, err := ParseKind(string(a.Kind)); err != nil {
		return err
	}
	if a.StartPrice > MaxPrice || a.EndPrice > MaxPrice {
		return dErrors.Newf(dErrors.CodeValidation, "auction prices must not exceed %d", MaxPrice)
	}
	if a.Duration < MinDuration || a.Duration > MaxDuration {
		return dErrors.New(dErrors.CodeValidation, "auction duration is out of range")
	}
	switch a.Kind {
	case KindRent:
		if a.RentalDuration <= 0 {
			return dErrors.New(dErrors.CodeValidation, "rental duration must be positive for rent auctions")
		}
	case KindSale:
		if a.RentalDuration != 0 {
			return dErrors.New(dErrors.CodeValidation, "rental duration only applies to rent auctions")
		}
	}
	return nil
}

// Clone returns a deep copy of the auction record.
func (a *Auction) Clone() *Auction {
	clone := *a
	return &clone
}
