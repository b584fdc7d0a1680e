package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// checkTimeout bounds each component probe during readiness checks.
const checkTimeout = 3 * time.Second

// HealthChecker is one named dependency the readiness probe verifies.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc struct {
	CheckerName string
	Fn          func(ctx context.Context) error
}

func (c CheckerFunc) Name() string                    { return c.CheckerName }
func (c CheckerFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	version  string
	startAt  time.Time
	checkers []HealthChecker
}

// NewHealthHandler builds the probe handler; checkers gate readiness.
func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		version:  version,
		startAt:  time.Now(),
		checkers: checkers,
	}
}

// RegisterRoutes mounts the probes at the server root, outside /api.
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
}

// LivenessResponse reports process liveness.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ComponentCheck is one dependency's probe outcome.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReadinessResponse reports whether the gateway can serve traffic.
type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// Liveness always answers 200 while the process runs; it checks nothing
// external.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Round(time.Second).String(),
	})
}

// Readiness probes every registered dependency; any failure answers 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	resp := ReadinessResponse{
		Status:     "ready",
		Components: make(map[string]ComponentCheck, len(h.checkers)),
	}
	status := http.StatusOK

	for _, chk := range h.checkers {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		start := time.Now()
		err := chk.Check(ctx)
		cancel()

		cc := ComponentCheck{
			Status:  "ok",
			Latency: time.Since(start).Round(time.Millisecond).String(),
		}
		if err != nil {
			cc.Status = "failed"
			cc.Error = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
		}
		resp.Components[chk.Name()] = cc
	}

	c.JSON(status, resp)
}
