// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Business metrics track pipeline-specific operations
var (
	// ItemsCollectedTotal counts items pulled from each source adapter
	ItemsCollectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_collected_total",
			Help: "Total number of items pulled from source adapters",
		},
		[]string{"source_type", "source"},
	)

	// ItemsPublishedTotal counts items successfully published to the queue
	ItemsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_published_total",
			Help: "Total number of collected items published to the queue",
		},
		[]string{"source_type", "source"},
	)

	// CollectErrorsTotal counts per-source collection failures
	CollectErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collect_errors_total",
			Help: "Total number of source collection failures",
		},
		[]string{"source"},
	)

	// CollectDuration measures the wall-clock time of a full Collect run
	CollectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "collect_duration_seconds",
			Help:    "Time taken to fan a search request out across all sources",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// ItemsProcessedTotal counts items that completed archive+analyze+upsert
	ItemsProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "items_processed_total",
			Help: "Total number of items successfully processed",
		},
	)

	// ItemsSkippedTotal counts items skipped because they already exist
	ItemsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "items_skipped_total",
			Help: "Total number of items skipped due to SkipExisting",
		},
	)

	// ProcessErrorsTotal counts per-item processing failures
	ProcessErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "process_errors_total",
			Help: "Total number of per-item processing failures",
		},
	)

	// ProcessBatchDuration measures the wall-clock time of a single ProcessBatch call
	ProcessBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "process_batch_duration_seconds",
			Help:    "Time taken to process one batch of collected items",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// LLMAnalysisDuration measures time spent in a single LLM analysis call
	LLMAnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "llm_analysis_duration_seconds",
			Help:    "Time taken by a single sentiment analysis call",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordOperationDuration records the duration of a named operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
