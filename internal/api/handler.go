// Package api provides the read-only operator HTTP endpoints.
//
//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/adelyanov/vigil/internal/store"
	"github.com/go-chi/chi/v5"
)

// Handler serves the operator API.
type Handler struct {
	repo      store.Repository
	startedAt time.Time
}

// NewHandler creates a new operator API handler.
func NewHandler(repo store.Repository) *Handler {
	return &Handler{
		repo:      repo,
		startedAt: time.Now(),
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RegisterRoutes mounts the operator endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.Health)
	r.Get("/api/watches", h.Watches)
}

// Health reports process uptime and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.repo.Ping(r.Context()); err != nil {
		slog.Error("Health check database ping failed", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	JSON(w, code, map[string]interface{}{
		"status": status,
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Watches dumps the full watch list for operator inspection.
func (h *Handler) Watches(w http.ResponseWriter, r *http.Request) {
	watches, err := h.repo.ListAll(r.Context())
	if err != nil {
		slog.Error("Failed to list watches for API", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list watches")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(watches),
		"watches": watches,
	})
}
