package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/alert-arbiter/internal/collector"
)

type HealthHandler struct {
	db      HealthChecker
	arbiter ArbiterService
}

// NewHealthHandler accepts a nil db when history is disabled.
func NewHealthHandler(db HealthChecker, svc ArbiterService) *HealthHandler {
	return &HealthHandler{db: db, arbiter: svc}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Source    string            `json:"source,omitempty"`
	Frames    uint64            `json:"frames,omitempty"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "healthy"
	resp := HealthResponse{}

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "healthy"
		}
	}

	if h.arbiter != nil {
		source, frames, running, err := h.arbiter.PipelineStatus()
		resp.Source = source
		resp.Frames = frames
		switch {
		case running:
			checks["pipeline"] = "running"
		case errors.Is(err, collector.ErrExhausted):
			checks["pipeline"] = "finished"
		case err != nil:
			checks["pipeline"] = "stopped: " + err.Error()
			status = "unhealthy"
		default:
			checks["pipeline"] = "stopped"
			status = "unhealthy"
		}
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	resp.Status = status
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	resp.Checks = checks
	c.JSON(statusCode, resp)
}

// Ready is true while the control loop is ticking and history is reachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ready := true
	if h.db != nil && h.db.HealthCheck(ctx) != nil {
		ready = false
	}
	if h.arbiter != nil {
		if _, _, running, _ := h.arbiter.PipelineStatus(); !running {
			ready = false
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "not ready",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
