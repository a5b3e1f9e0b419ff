package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poll loop metrics
	JobsScannedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printwatch_jobs_scanned_total",
			Help: "Total number of print jobs evaluated",
		},
	)

	JobsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printwatch_jobs_skipped_total",
			Help: "Total number of print jobs skipped without evaluation",
		},
		[]string{"cause"}, // cause: invalid, panic
	)

	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printwatch_poll_duration_seconds",
			Help:    "Time taken to fetch and evaluate one poll cycle",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	PollBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printwatch_poll_batch_size",
			Help:    "Number of jobs returned by the source per poll cycle",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	// Source metrics
	FetchErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printwatch_fetch_errors_total",
			Help: "Total number of failed job source fetches",
		},
	)

	SourceUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "printwatch_source_up",
			Help: "Whether the last job source fetch succeeded (1) or failed (0)",
		},
	)

	// Alert metrics
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printwatch_alerts_total",
			Help: "Total number of alert reasons fired",
		},
		[]string{"reason"},
	)

	AlertsEmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printwatch_alerts_emitted_total",
			Help: "Total number of alerts written to the sink",
		},
	)

	AlertsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printwatch_alerts_dropped_total",
			Help: "Total number of alerts dropped after sink write failures",
		},
	)

	SinkWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printwatch_sink_write_errors_total",
			Help: "Total number of alert log write failures",
		},
	)

	// HTTP metrics (operational listener)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printwatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printwatch_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
