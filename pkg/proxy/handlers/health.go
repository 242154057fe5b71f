package handlers

import (
	"net/http"
	"time"
)

// HealthHandler serves GET /health for liveness probes. Always cheap,
// no auth.
type HealthHandler struct {
	// now is the clock source, overridable in tests
	now func() time.Time
}

// NewHealthHandler creates the health check handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   Version,
	})
}
