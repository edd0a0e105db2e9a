package metrics

import "time"

// RecordItemCollected records a single item pulled from a source adapter.
func RecordItemCollected(sourceType, source string) {
	ItemsCollectedTotal.WithLabelValues(sourceType, source).Inc()
}

// RecordItemPublished records a single item successfully published to the queue.
func RecordItemPublished(sourceType, source string) {
	ItemsPublishedTotal.WithLabelValues(sourceType, source).Inc()
}

// RecordCollectError records a source-level collection failure.
func RecordCollectError(source string) {
	CollectErrorsTotal.WithLabelValues(source).Inc()
}

// RecordCollectDuration records the wall-clock time of a full Collect run.
func RecordCollectDuration(duration time.Duration) {
	CollectDuration.Observe(duration.Seconds())
}

// RecordItemProcessed records a single item that completed archive, analysis,
// and upsert.
func RecordItemProcessed() {
	ItemsProcessedTotal.Inc()
}

// RecordItemSkipped records a single item skipped because it already exists
// in the relational store.
func RecordItemSkipped() {
	ItemsSkippedTotal.Inc()
}

// RecordProcessError records a per-item processing failure.
func RecordProcessError() {
	ProcessErrorsTotal.Inc()
}

// RecordProcessBatchDuration records the wall-clock time of one ProcessBatch call.
func RecordProcessBatchDuration(duration time.Duration) {
	ProcessBatchDuration.Observe(duration.Seconds())
}

// RecordLLMAnalysisDuration records the time spent in a single LLM analysis call.
func RecordLLMAnalysisDuration(duration time.Duration) {
	LLMAnalysisDuration.Observe(duration.Seconds())
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "insert_processed_item").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
