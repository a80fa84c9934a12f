package models

import (
	"time"

	"landgrid/pkg/domain"
)

// Metadata is the free-form descriptive record attached to a plot, writable
// by the owner or by an active renter.
type Metadata struct {
	Name        string
	Description string
	ImageURL    string
	InfoURL     string
}

// IsZero reports whether no metadata field is set.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Plot is one claimed grid cell. Unclaimed cells have no record at all;
// claiming is the only way a record comes into existence and it never leaves.
type Plot struct {
	ID    domain.PlotID
	Owner domain.AccountID

	// Renter and RentPeriodEnd describe the current rental grant. Expiry is
	// evaluated lazily against the request clock; an expired grant is treated
	// as absent without any clearing write.
	Renter        domain.AccountID
	RentPeriodEnd time.Time

	CreatedAt time.Time
	Metadata  Metadata

	// BuyoutPrice is owner-settable within bounds until the first buyout,
	// then escalated by the registry alone.
	BuyoutPrice      uint64
	HasBeenBoughtOut bool

	// PendingApproval authorizes one account to take ownership once. Any
	// ownership transfer invalidates it.
	PendingApproval domain.AccountID
}

// ActiveRenter returns the current renter if an unexpired rental exists.
func (p *Plot) ActiveRenter(now time.Time) (domain.AccountID, bool) {
	if p.Renter.IsZero() || !now.Before(p.RentPeriodEnd) {
		return domain.AccountID{}, false
	}
	return p.Renter, true
}

// Clone returns a deep copy so store reads never alias live records.
func (p *Plot) Clone() *Plot {
	cp := *p
	return &cp
}
