// Package metric provides Prometheus metrics for redpipe tools.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry, pipeline observer and HTTP handler
//   - collector.go: Custom collector for connection pool statistics
//
// Metrics include:
//
//   - Pipeline executions by connection and result
//   - Commands per round trip and round-trip latency histograms
//   - Keys returned by scans
//   - go-redis pool statistics per bound connection
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
