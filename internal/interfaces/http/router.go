// Package http wires the gin route tree and the HTTP server lifecycle for
// the gateway.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/logging"
	"github.com/tradepulse/tradepulse/internal/infrastructure/monitoring/metrics"
	"github.com/tradepulse/tradepulse/internal/interfaces/http/handlers"
	"github.com/tradepulse/tradepulse/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and cross-cutting dependencies the
// route tree needs.
type RouterConfig struct {
	SessionHandler *handlers.SessionHandler
	RefDataHandler *handlers.RefDataHandler
	HealthHandler  *handlers.HealthHandler

	Logger      logging.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string

	// Mode is the gin mode: debug, release, or test.
	Mode string
}

// NewRouter builds the complete route tree: probes and metrics at the root,
// the dashboard API under /api/v1.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins...)))
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, "/healthz", "/readyz", "/metrics"))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			cfg.Metrics.Registry, promhttp.HandlerOpts{},
		)))
	}

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}

	api := r.Group("/api/v1")
	if cfg.SessionHandler != nil {
		cfg.SessionHandler.RegisterRoutes(api)
	}
	if cfg.RefDataHandler != nil {
		cfg.RefDataHandler.RegisterRoutes(api)
	}

	return r
}
