// Package metrics exposes Prometheus collectors for the medsummary process:
//   - http_request_total, http_request_duration_seconds, http_request_in_flight
//   - rate_limiter_buckets_total
//   - store_write_failures_total / store_read_failures_total per storage key
//   - form_mutations_total per entity and operation
//   - summary_projections_total split by pristine state
//   - session_locks_total
//
// Everything is registered with the default registry at init.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Rate limiter buckets (clients seen in the last ~5 minutes)",
		},
	)

	StoreWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_write_failures_total",
			Help: "Record store writes that failed and were dropped",
		},
		[]string{"key"},
	)

	StoreReadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_read_failures_total",
			Help: "Record store reads that failed or held corrupt data",
		},
		[]string{"key"},
	)

	FormMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_mutations_total",
			Help: "Editor mutations applied",
		},
		[]string{"entity", "op"},
	)

	SummaryProjections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_projections_total",
			Help: "Printable summaries computed",
		},
		[]string{"pristine"},
	)

	SessionLocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "session_locks_total",
			Help: "Sessions locked after inactivity",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(StoreWriteFailures)
	prometheus.MustRegister(StoreReadFailures)
	prometheus.MustRegister(FormMutations)
	prometheus.MustRegister(SummaryProjections)
	prometheus.MustRegister(SessionLocks)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveProjection counts one summary computation
func ObserveProjection(pristine bool) {
	SummaryProjections.WithLabelValues(strconv.FormatBool(pristine)).Inc()
}
