// Package audit captures the registry's event surface: every economic state
// transition is recorded as a structured event for external indexers.
package audit

import "time"

// EventType names one kind of state transition.
type EventType string

const (
	EventPlotClaimed       EventType = "plot_claimed"
	EventClaimDividend     EventType = "claim_dividend"
	EventPlotTransferred   EventType = "plot_transferred"
	EventPlotApproved      EventType = "plot_approved"
	EventPlotRented        EventType = "plot_rented"
	EventPlotDataSet       EventType = "plot_data_set"
	EventBuyout            EventType = "buyout"
	EventBuyoutDividend    EventType = "buyout_dividend"
	EventBalanceWithdrawn  EventType = "balance_withdrawn"
	EventProtocolWithdrawn EventType = "protocol_withdrawn"
	EventAuctionCreated    EventType = "auction_created"
	EventAuctionConcluded  EventType = "auction_concluded"
	EventAuctionCancelled  EventType = "auction_cancelled"
)

// Event is emitted from domain logic on every state transition. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`

	// Actor is the account whose call caused the transition; Recipient is the
	// account credited or granted by it, when one exists.
	Actor     string `json:"actor,omitempty"`
	Recipient string `json:"recipient,omitempty"`

	PlotID uint64 `json:"plot_id,omitempty"`
	Amount uint64 `json:"amount,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}
