// Package observability groups the Prometheus instruments for the service.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes recorded on QueriesTotal.
const (
	OutcomeCacheHit = "cache_hit"
	OutcomeRouted   = "routed"
	OutcomeDirect   = "direct"
	OutcomeError    = "error"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing, so library code never has to
// check whether metrics are wired.
type Metrics struct {
	QueriesTotal       *prometheus.CounterVec
	CapabilityCalls    *prometheus.CounterVec
	OracleFailures     *prometheus.CounterVec
	CacheLookupSeconds prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		QueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries handled, by outcome.",
		}, []string{"outcome"}),
		CapabilityCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_calls_total",
			Help:      "Capability provider calls, by capability and status.",
		}, []string{"capability", "status"}),
		OracleFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_failures_total",
			Help:      "Model oracle failures, by oracle.",
		}, []string{"oracle"}),
		CacheLookupSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_lookup_seconds",
			Help:      "Semantic cache lookup latency in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
	}
}

func (m *Metrics) RecordQuery(outcome string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCapabilityCall(capability, status string) {
	if m == nil {
		return
	}
	m.CapabilityCalls.WithLabelValues(capability, status).Inc()
}

func (m *Metrics) RecordOracleFailure(oracle string) {
	if m == nil {
		return
	}
	m.OracleFailures.WithLabelValues(oracle).Inc()
}

func (m *Metrics) ObserveCacheLookup(d time.Duration) {
	if m == nil {
		return
	}
	m.CacheLookupSeconds.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
