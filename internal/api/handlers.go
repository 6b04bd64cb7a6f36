// Package api exposes the multi-tenant sync service over HTTP: a health
// probe plus per-farm push/pull endpoints guarded by bearer-token scope
// resolution. Errors surface as RFC 7807 problem+json.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agrolabs/pasture/internal/store"
)

// Handler holds the dependencies for the HTTP endpoints.
type Handler struct {
	store   *store.Store
	secret  string
	version string
}

// NewHandler creates a Handler backed by the server store.
func NewHandler(s *store.Store, secret, version string) *Handler {
	return &Handler{store: s, secret: secret, version: version}
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health reports service liveness and the running version.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
