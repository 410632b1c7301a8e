package handler

import (
	"context"
	"net/http"
	"time"

	"pokertable/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

// Check handles GET /health. A failing store makes the service unhealthy;
// a failing cache only degrades it.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	logger.Debug("Health check requested")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Version:    "1.0.0",
		Service:    "pokertable",
		Components: map[string]string{},
	}
	status := http.StatusOK

	storeName := "memory"
	if h.container.HasDatabase() {
		storeName = "postgres"
	}
	if err := h.container.Store.Health(ctx); err != nil {
		logger.WithError(err).Error("Store health check failed")
		response.Components[storeName] = "unhealthy"
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		response.Components[storeName] = "healthy"
	}

	switch {
	case !h.container.Services.Cache.Enabled():
		response.Components["redis"] = "disabled"
	case h.container.Services.Cache.HealthCheck(ctx) != nil:
		logger.Warn("Redis health check failed")
		response.Components["redis"] = "unhealthy"
		if response.Status == "healthy" {
			response.Status = "degraded"
		}
	default:
		response.Components["redis"] = "healthy"
	}

	respondJSON(w, status, response)
}
