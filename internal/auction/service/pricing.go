package service

import (
	"time"

	"landgrid/internal/auction/models"
)

// priceAt computes the clock price elapsed into the auction. The price moves
// linearly from StartPrice to EndPrice over Duration and holds at EndPrice
// afterwards. The change term truncates toward the start price, in whole
// seconds, so repeated quotes are monotone in either direction.
func priceAt(a *models.Auction, now time.Time) uint64 {
	elapsed := int64(now.Sub(a.StartedAt) / time.Second)
	duration := int64(a.Duration / time.Second)
	if elapsed <= 0 {
		return a.StartPrice
	}
	if elapsed >= duration {
		return a.EndPrice
	}

	// Split the delta to keep every intermediate product inside int64:
	// delta*elapsed/duration == q*elapsed + r*elapsed/duration exactly, with
	// q = delta/duration and r = delta%duration.
	delta := int64(a.EndPrice) - int64(a.StartPrice)
	q := delta / duration
	r := delta % duration
	change := q*elapsed + r*elapsed/duration
	return uint64(int64(a.StartPrice) + change)
}
