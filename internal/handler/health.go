package handler

import (
	"net/http"
	"time"

	"zaidev/internal/httputil"
)

// HealthHandler reports liveness plus the circuit state of each backend.
type HealthHandler struct {
	breakers func() map[string]string
}

// NewHealthHandler creates a health handler. breakers may be nil.
func NewHealthHandler(breakers func() map[string]string) *HealthHandler {
	return &HealthHandler{breakers: breakers}
}

// HealthCheck handles health check requests
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	}
	if h.breakers != nil {
		states := h.breakers()
		if len(states) > 0 {
			resp["breakers"] = states
			for _, s := range states {
				if s == "open" {
					resp["status"] = "degraded"
				}
			}
		}
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}
