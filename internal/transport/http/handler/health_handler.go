package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one backing component; nil error means healthy.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	startedAt time.Time
	checks    map[string]HealthCheck
}

func NewHealthHandler(startedAt time.Time, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, checks: checks}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	components := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = "error: " + err.Error()
			status = "degraded"
		} else {
			components[name] = "ok"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
		"components": components,
	})
}
