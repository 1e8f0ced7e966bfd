// Package metrics holds the Prometheus collectors of the link pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking_links"

var (
	// Row outcomes by kind: success, validation_error, api_error, transport_error
	rowOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_outcomes_total",
			Help:      "Rows processed by the link pipeline, by outcome.",
		},
		[]string{"outcome"},
	)

	batchPauses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_pauses_total",
		Help:      "Inter-batch pauses taken to respect the API rate limit.",
	})

	runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by mode.",
		},
		[]string{"mode"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Links API request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)
)

func RecordOutcome(outcome string) {
	rowOutcomes.WithLabelValues(outcome).Inc()
}

func RecordBatchPause() {
	batchPauses.Inc()
}

func RecordRun(mode string) {
	runs.WithLabelValues(mode).Inc()
}

func ObserveAPIRequest(endpoint, status string, d time.Duration) {
	apiRequestDuration.WithLabelValues(endpoint, status).Observe(d.Seconds())
}
