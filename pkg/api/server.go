// Package api exposes the small HTTP surface spec.md §1 names as an
// external collaborator: /health for orchestrator liveness checks, /cost
// for the dashboard's Cost Tracker snapshot, and /metrics for Prometheus
// scraping. Grounded in cmd/tarsy/main.go's gin.Default() + router.GET
// setup.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/predictval/predictval/pkg/cost"
	"github.com/predictval/predictval/pkg/queue"
	"github.com/predictval/predictval/pkg/version"
)

// Server wraps a gin.Engine over the Cost Tracker, the worker pool's
// health, and a DB ping.
type Server struct {
	engine  *gin.Engine
	tracker *cost.Tracker
	pool    *queue.WorkerPool
	pinger  func(context.Context) error
}

// NewServer builds the HTTP surface. ginMode should be one of gin's
// release/debug/test modes; pinger checks database reachability for
// /health.
func NewServer(ginMode string, tracker *cost.Tracker, pool *queue.WorkerPool, pinger func(context.Context) error, registry *prometheus.Registry) *Server {
	gin.SetMode(ginMode)
	engine := gin.Default()

	s := &Server{engine: engine, tracker: tracker, pool: pool, pinger: pinger}

	engine.GET("/health", s.healthHandler)
	engine.GET("/cost", s.costHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return s
}

// Run starts the HTTP server, blocking until it returns an error or the
// caller's process exits (mirrors cmd/tarsy/main.go's router.Run).
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	dbErr := ""
	if err := s.pinger(reqCtx); err != nil {
		status = "unhealthy"
		dbErr = err.Error()
	}

	poolHealthy := true
	if s.pool != nil {
		if ph := s.pool.Health(); ph != nil {
			poolHealthy = ph.IsHealthy
		}
	}
	if !poolHealthy && status == "healthy" {
		status = "degraded"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":              status,
		"version":             version.Full(),
		"database":            dbErr == "",
		"database_error":      dbErr,
		"worker_pool_healthy": poolHealthy,
	})
}

func (s *Server) costHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.tracker.Snapshot())
}
