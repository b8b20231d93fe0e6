// Package httpserver provides the admin HTTP server for respkv.
//
// The admin surface is deliberately small and read-only:
//
//   - GET /health: liveness, always 200 while the process runs
//   - GET /ready: 200 while the RESP listener accepts, 503 otherwise
//   - GET /version: build information
//   - GET /metrics: Prometheus exposition of the application registry
//
// Every route runs behind the Recover and RequestID middleware. Request IDs
// are ULIDs unless the caller supplies X-Request-ID.
package httpserver
