package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/respkv-go/internal/infra/buildinfo"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.ready() {
		h.writeError(w, r, http.StatusServiceUnavailable, CodeNotReady, "server is not accepting connections")
		return
	}
	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleVersion handles GET /version.
func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, buildinfo.Get())
}
