package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the auction module.
type Metrics struct {
	AuctionsCreated   prometheus.Counter
	AuctionsConcluded prometheus.Counter
	AuctionsCancelled prometheus.Counter
	FeesRetained      prometheus.Counter
	SettledValue      prometheus.Counter
}

// New creates a new Metrics instance with all auction module metrics registered.
func New() *Metrics {
	return &Metrics{
		AuctionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_auctions_created_total",
			Help: "Total number of auctions created",
		}),
		AuctionsConcluded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_auctions_concluded_total",
			Help: "Total number of auctions concluded by a winning bid",
		}),
		AuctionsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_auctions_cancelled_total",
			Help: "Total number of auctions cancelled by their seller",
		}),
		FeesRetained: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_auction_fees_retained_units_total",
			Help: "Total fee value retained from winning bids, in currency units",
		}),
		SettledValue: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_auction_settled_units_total",
			Help: "Total winning bid value settled, in currency units",
		}),
	}
}
