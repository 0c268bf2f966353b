// Package ophttp is the worker's operational HTTP surface: liveness,
// readiness, and Prometheus metrics, served alongside the claim loop
// so an orchestrator can supervise the process without touching the
// job queue.
package ophttp

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"zenpdf-worker/internal/middleware"
)

// ReadinessChecker reports whether the worker loop has completed at
// least one successful queue RPC since startup.
type ReadinessChecker interface {
	Ready() bool
}

// Server wraps the gin engine and its underlying http.Server so Run
// can be shut down gracefully.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New builds the operational HTTP surface on addr.
func New(addr string, readTimeout, writeTimeout time.Duration, logger *zap.Logger, ready ReadinessChecker) *Server {
	gin.SetMode(gin.ReleaseMode)
	mw := middleware.NewMiddleware(logger)

	engine := gin.New()
	engine.Use(mw.RequestID(), mw.RequestLogger(), mw.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/ready", func(c *gin.Context) {
		if ready != nil && !ready.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
	}
}

// Run starts serving and blocks until the listener stops.
func (s *Server) Run() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting new connections and waits up to ctx's
// deadline for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
