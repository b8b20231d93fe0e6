// Package metric provides Prometheus metrics for respkv.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: the application Registry and its HTTP handler
//
// Metrics include:
//
//   - Connection gauges and counters
//   - Command counters and latency histograms
//   - Protocol error counters
//
// The store registers its own key-count and expiration metrics on the same
// registry (see memory.Store.RegisterMetrics). Metrics are exposed at
// /metrics by the admin HTTP server.
package metric
