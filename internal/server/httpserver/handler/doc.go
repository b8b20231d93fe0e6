// Package handler provides the admin HTTP handlers for respkv.
//
// JSON responses share the Response envelope; /metrics is mounted by the
// router and uses the Prometheus text format instead.
package handler
