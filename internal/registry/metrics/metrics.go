package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
// Tracks claim/transfer/buyout volumes and the economic flows they move.
type Metrics struct {
	PlotsClaimed      prometheus.Counter
	PlotsTransferred  prometheus.Counter
	PlotsRented       prometheus.Counter
	Buyouts           prometheus.Counter
	DividendsCredited prometheus.Counter
	FeesCollected     prometheus.Counter
	Withdrawals       prometheus.Counter
	ClaimDuration     prometheus.Histogram
	BuyoutDuration    prometheus.Histogram
}

// New creates a new Metrics instance with all registry module metrics registered.
func New() *Metrics {
	return &Metrics{
		PlotsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_plots_claimed_total",
			Help: "Total number of plots claimed",
		}),
		PlotsTransferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_plots_transferred_total",
			Help: "Total number of ownership transfers, including take-ownership and buyouts",
		}),
		PlotsRented: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_plots_rented_total",
			Help: "Total number of rental grants",
		}),
		Buyouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_buyouts_total",
			Help: "Total number of forced buyouts",
		}),
		DividendsCredited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_dividends_credited_units_total",
			Help: "Total dividend value credited to neighbor balances, in currency units",
		}),
		FeesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_fees_collected_units_total",
			Help: "Total fee and remainder value credited to the protocol treasury, in currency units",
		}),
		Withdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_withdrawals_total",
			Help: "Total number of successful balance withdrawals",
		}),
		ClaimDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "landgrid_claim_duration_seconds",
			Help:    "Duration of claim operations including batch claims",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BuyoutDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "landgrid_buyout_duration_seconds",
			Help:    "Duration of buyout operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveClaim records the duration of a claim operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveClaim(start time.Time) {
	m.ClaimDuration.Observe(time.Since(start).Seconds())
}

// ObserveBuyout records the duration of a buyout operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveBuyout(start time.Time) {
	m.BuyoutDuration.Observe(time.Since(start).Seconds())
}
