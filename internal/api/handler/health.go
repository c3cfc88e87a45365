package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/pconlabs/control-bot/internal/core/domain"
	"github.com/pconlabs/control-bot/internal/core/ports"
)

const probeTimeout = 3 * time.Second

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadinessHandler handles GET /health/ready, the readiness probe.
// Checks brain reachability, and Redis when the identity cache uses it.
type ReadinessHandler struct {
	brain ports.BrainClient
	redis *redis.Client // nil when the in-memory cache is active
}

func NewReadinessHandler(brain ports.BrainClient, rdb *redis.Client) *ReadinessHandler {
	return &ReadinessHandler{brain: brain, redis: rdb}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), probeTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	// --- Brain probe ---
	// An application error still proves the brain answered; only a
	// transport failure marks it unreachable.
	if _, err := h.brain.ServerVersion(ctx); err != nil {
		var terr *domain.TransportError
		if errors.As(err, &terr) {
			deps["brain"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			deps["brain"] = dependencyStatus{Status: "ok"}
		}
	} else {
		deps["brain"] = dependencyStatus{Status: "ok"}
	}

	// --- Redis ping (only when configured) ---
	if h.redis != nil {
		if _, err := h.redis.Ping(ctx).Result(); err != nil {
			deps["redis"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			deps["redis"] = dependencyStatus{Status: "ok"}
		}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
