package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is a dependency that can report its own health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	components map[string]HealthChecker
}

// NewHealthHandler creates a new HealthHandler. A nil checker is reported as "not configured".
func NewHealthHandler(components map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{components: components}
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// Health returns a simple health check (liveness probe)
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready returns a readiness check (readiness probe)
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.components))
	allHealthy := true

	for name, checker := range h.components {
		if checker == nil {
			components[name] = "not configured"
			continue
		}
		if err := checker.HealthCheck(ctx); err != nil {
			components[name] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			components[name] = "healthy"
		}
	}

	resp := ReadyResponse{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	if allHealthy {
		resp.Status = "ready"
		c.JSON(http.StatusOK, resp)
	} else {
		resp.Status = "not ready"
		c.JSON(http.StatusServiceUnavailable, resp)
	}
}
