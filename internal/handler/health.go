package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// readyTimeout bounds the store ping of a readiness probe.
const readyTimeout = 5 * time.Second

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	store   HealthChecker
	backend string
}

// NewHealthHandler creates a new HealthHandler for the named store backend.
// Pass a nil store if it is not yet initialized.
func NewHealthHandler(store HealthChecker, backend string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		backend: backend,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint.
// It returns 200 if the server is running, without dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe endpoint.
// It returns 200 only if the store answers a ping. Ping errors are not echoed
// because they may carry connection details.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string, 1)
	healthy := true

	switch {
	case h.store == nil:
		checks[h.backend] = "not configured"
		healthy = false
	case h.store.Ping(ctx) != nil:
		checks[h.backend] = "unreachable"
		healthy = false
	default:
		checks[h.backend] = "ok"
	}

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, HealthResponse{
		Status: status,
		Checks: checks,
	})
}
