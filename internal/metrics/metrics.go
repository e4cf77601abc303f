// Package metrics exposes Prometheus instrumentation for quote requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QuoteMetrics records quote request outcomes. A nil *QuoteMetrics is valid
// and records nothing.
type QuoteMetrics struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	pathFailures *prometheus.CounterVec
	stale        prometheus.Counter
	impact       prometheus.Histogram
}

// NewQuoteMetrics registers the quote collectors on reg.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	factory := promauto.With(reg)
	return &QuoteMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quoter_requests_total",
			Help: "Quote requests by trade kind and final state",
		}, []string{"kind", "state"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quoter_request_duration_seconds",
			Help:    "Time spent quoting all candidate paths of a request",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"kind"}),
		pathFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quoter_path_failures_total",
			Help: "Candidate paths whose quote call failed, by hop count",
		}, []string{"hops"}),
		stale: factory.NewCounter(prometheus.CounterOpts{
			Name: "quoter_stale_results_total",
			Help: "Results dropped because a newer request superseded them",
		}),
		impact: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "quoter_price_impact_percent",
			Help:    "Price impact of winning quotations",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 3, 5, 10, 25, 50, 100},
		}),
	}
}

func (m *QuoteMetrics) RequestFinished(kind, state string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind, state).Inc()
	m.latency.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *QuoteMetrics) PathFailed(hops string) {
	if m == nil {
		return
	}
	m.pathFailures.WithLabelValues(hops).Inc()
}

func (m *QuoteMetrics) StaleDiscarded() {
	if m == nil {
		return
	}
	m.stale.Inc()
}

func (m *QuoteMetrics) PriceImpact(percent float64) {
	if m == nil {
		return
	}
	m.impact.Observe(percent)
}
