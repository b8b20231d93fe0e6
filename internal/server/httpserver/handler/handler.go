package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/respkv-go/internal/telemetry/logger"
)

// Handler serves the JSON admin endpoints.
type Handler struct {
	logger logger.Logger
	ready  func() bool
	mux    *http.ServeMux
}

// New creates a new Handler. A nil ready reports the server as always ready.
func New(l logger.Logger, ready func() bool) *Handler {
	if ready == nil {
		ready = func() bool { return true }
	}
	h := &Handler{
		logger: l,
		ready:  ready,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /version", h.handleVersion)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.write(w, status, NewResponse(getRequestID(r), data))
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("X-Error-Code", code)
	h.write(w, status, NewErrorResponse(getRequestID(r), code, message))
}

func (h *Handler) write(w http.ResponseWriter, status int, response *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// getRequestID prefers the ID the RequestID middleware stored in the
// context and falls back to the request header.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
