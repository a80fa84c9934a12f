package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsAllowed *prometheus.CounterVec
	RequestsBlocked *prometheus.CounterVec
	CheckFailures   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RequestsAllowed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landgrid_ratelimit_requests_allowed_total",
			Help: "Requests that passed the rate limiter, by endpoint class",
		}, []string{"class"}),
		RequestsBlocked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landgrid_ratelimit_requests_blocked_total",
			Help: "Requests rejected with 429, by endpoint class",
		}, []string{"class"}),
		CheckFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landgrid_ratelimit_check_failures_total",
			Help: "Limiter checks that errored and failed open",
		}),
	}
}

func (m *Metrics) IncrementAllowed(class string) {
	m.RequestsAllowed.WithLabelValues(class).Inc()
}

func (m *Metrics) IncrementBlocked(class string) {
	m.RequestsBlocked.WithLabelValues(class).Inc()
}

func (m *Metrics) IncrementCheckFailures() {
	m.CheckFailures.Inc()
}
