package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	exchanges []string
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler reporting the given exchanges.
func NewHealthHandler(exchanges []string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{exchanges: exchanges, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	exchanges := h.exchanges
	if exchanges == nil {
		exchanges = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"exchanges": exchanges,
	})
}
