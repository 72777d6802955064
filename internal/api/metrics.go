package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "filterql"

// Metrics are the list endpoint's Prometheus collectors.
type Metrics struct {
	// QueriesTotal counts list requests by outcome: ok, rejected or error.
	QueriesTotal *prometheus.CounterVec
	// RejectedTotal counts rejected queries by error code.
	RejectedTotal *prometheus.CounterVec
	// QueryLatency observes successful list requests end to end.
	QueryLatency *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total list queries",
			},
			[]string{"resource", "status"},
		),
		RejectedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_rejected_total",
				Help:      "Total rejected list queries by error code",
			},
			[]string{"resource", "code"},
		),
		QueryLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_latency_seconds",
				Help:      "List query latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"resource"},
		),
	}
}
