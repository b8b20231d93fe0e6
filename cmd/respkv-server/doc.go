// Package main provides the entry point for respkv-server.
//
// The server is a Redis-compatible key-value store that provides:
//
//   - A RESP2 listener with GET and SET (EX/PX expiry)
//   - An optional admin HTTP endpoint with /health, /ready and /metrics
//   - Runtime log level changes when the config file is edited
//
// Usage:
//
//	respkv-server [flags]
//	respkv-server --config /path/to/config.yaml
//
// SIGINT or SIGTERM stops accepting, drains open connections and then runs
// the shutdown hooks within shutdown.timeout.
package main
