// Package logger provides structured logging for respkv.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: handler construction, global level, package-level helpers
//   - context.go: logger and connection/request ID propagation via context
//   - redact.go: masking of stored payloads before they reach the output
//
// The level is process-wide and can be changed at runtime with SetLevel,
// which is how a config reload adjusts verbosity without a restart.
package logger
