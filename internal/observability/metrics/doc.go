// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Business metrics (items collected, published, processed, skipped)
//   - Database query metrics
//   - Application performance metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "sentinel-pipeline/internal/observability/metrics"
//
//	func processItem(sourceType string) {
//	    start := time.Now()
//	    // ... process item ...
//
//	    metrics.RecordItemProcessed()
//	    metrics.RecordOperationDuration("process_item", time.Since(start))
//	}
package metrics
