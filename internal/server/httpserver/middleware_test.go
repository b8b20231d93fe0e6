package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/respkv-go/internal/telemetry/logger"
)

func newTestLogger(t *testing.T, w io.Writer) logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{Level: "debug", Output: w})
	if err != nil {
		t.Fatalf("logger.New error: %v", err)
	}
	return l
}

// ============================================================
// Chain Tests
// ============================================================

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "first,second,handler" {
		t.Errorf("order = %s", got)
	}
}

// ============================================================
// RequestID Tests
// ============================================================

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantKeep bool
	}{
		{"generated when absent", "", false},
		{"kept when supplied", "abc-123", true},
		{"replaced when too long", strings.Repeat("x", maxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			header := rec.Header().Get(RequestIDHeader)
			if header != seen {
				t.Errorf("header %q != context %q", header, seen)
			}
			if tt.wantKeep {
				if seen != tt.incoming {
					t.Errorf("request ID = %q, want %q", seen, tt.incoming)
				}
				return
			}
			if _, err := ulid.Parse(seen); err != nil {
				t.Errorf("generated request ID %q is not a ULID: %v", seen, err)
			}
		})
	}
}

// ============================================================
// Recover Tests
// ============================================================

func TestRecover(t *testing.T) {
	var logs bytes.Buffer
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), RequestID(), Recover(newTestLogger(t, &logs)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/explode", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["code"] != "INTERNAL" {
		t.Errorf("code = %q, want INTERNAL", body["code"])
	}

	out := logs.String()
	if !strings.Contains(out, "panic recovered") || !strings.Contains(out, "/explode") {
		t.Errorf("log missing panic entry: %s", out)
	}
	if !strings.Contains(out, rec.Header().Get(RequestIDHeader)) {
		t.Errorf("log missing request ID: %s", out)
	}
}

func TestRecover_AbortHandlerPropagates(t *testing.T) {
	h := Recover(newTestLogger(t, io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if r := recover(); r != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", r)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

// ============================================================
// AccessLog Tests
// ============================================================

func TestAccessLog(t *testing.T) {
	tests := []struct {
		status  int
		wantMsg string
		wantLvl string
	}{
		{http.StatusOK, "request completed", "DEBUG"},
		{http.StatusNotFound, "request completed with client error", "WARN"},
		{http.StatusServiceUnavailable, "request completed with error", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var logs bytes.Buffer
			h := AccessLog(newTestLogger(t, &logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			req.RemoteAddr = "[::1]:5555"
			h.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
				t.Fatalf("decode log: %v (%q)", err, logs.String())
			}
			if entry["msg"] != tt.wantMsg {
				t.Errorf("msg = %v, want %q", entry["msg"], tt.wantMsg)
			}
			if entry["level"] != tt.wantLvl {
				t.Errorf("level = %v, want %q", entry["level"], tt.wantLvl)
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("status = %v, want %d", entry["status"], tt.status)
			}
			if entry["client_ip"] != "::1" {
				t.Errorf("client_ip = %v, want ::1", entry["client_ip"])
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"remote addr", nil, "10.0.0.1:1234", "10.0.0.1"},
		{"ipv6 remote", nil, "[::1]:8080", "::1"},
		{"no port", nil, "10.0.0.2", "10.0.0.2"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "10.0.0.1:1", "1.1.1.1"},
		{"real ip", map[string]string{"X-Real-IP": "3.3.3.3"}, "10.0.0.1:1", "3.3.3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
