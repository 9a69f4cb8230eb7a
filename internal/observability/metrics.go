package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logiq_queries_total",
			Help: "Total number of SQL executions by outcome.",
		},
		[]string{"outcome"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "logiq_query_duration_seconds",
			Help:    "SQL execution latency, including result materialization.",
			Buckets: prometheus.DefBuckets,
		},
	)
	queryRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "logiq_query_rows",
			Help:    "Rows returned per successful SQL execution.",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000, 1000000},
		},
	)
	viewRegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logiq_view_registrations_total",
			Help: "Total number of explicit logs view (re)registrations by outcome.",
		},
		[]string{"outcome"},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logiq_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logiq_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		queriesTotal,
		queryDurationSeconds,
		queryRows,
		viewRegistrationsTotal,
		httpRequestsTotal,
		httpRequestDurationSeconds,
	)
}

// ObserveQuery records one SQL execution. outcome is "ok" or a failure kind.
func ObserveQuery(outcome string, duration time.Duration, rows int) {
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDurationSeconds.Observe(duration.Seconds())
	if outcome == "ok" {
		queryRows.Observe(float64(rows))
	}
}

// ObserveViewRegistration records one explicit view registration. outcome is
// "resolved", "unresolved" or "error".
func ObserveViewRegistration(outcome string) {
	viewRegistrationsTotal.WithLabelValues(outcome).Inc()
}
