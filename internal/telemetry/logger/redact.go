package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// defaultPayloadPreview is the number of leading payload bytes kept in logs.
const defaultPayloadPreview = 16

// payloadKeys are attribute names that carry stored values or raw frames.
var payloadKeys = []string{
	"value",
	"payload",
	"frame",
}

// redactPayload shortens attributes that may hold client data so a debug log
// never contains a full stored value.
func redactPayload(a slog.Attr, preview int) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactPayload(attr, preview)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	if !IsPayloadKey(a.Key) {
		return a
	}

	switch v := a.Value.Any().(type) {
	case []byte:
		return slog.String(a.Key, Truncate(string(v), preview))
	case string:
		return slog.String(a.Key, Truncate(v, preview))
	case fmt.Stringer:
		return slog.String(a.Key, Truncate(v.String(), preview))
	default:
		return a
	}
}

// Truncate keeps the first n bytes of s and records how much was cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 0 {
		return fmt.Sprintf("***(%d bytes)", len(s))
	}
	return fmt.Sprintf("%s...(%d bytes)", s[:n], len(s))
}

// IsPayloadKey reports whether an attribute name is treated as client data.
func IsPayloadKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, k := range payloadKeys {
		if keyLower == k || strings.HasSuffix(keyLower, "_"+k) {
			return true
		}
	}
	return false
}
