package handler

import (
	"net/http"
	"time"

	"linkvault/internal/httputil"
	"linkvault/internal/workspace"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	registry *workspace.Registry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *workspace.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"time":       time.Now(),
		"workspaces": h.registry.Len(),
	})
}
