// Command worker runs one ZenPDF worker process: the claim/dispatch
// loop against the remote job queue, plus an operational HTTP surface
// for liveness, readiness, and Prometheus metrics.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"zenpdf-worker/configs"
	"zenpdf-worker/internal/ophttp"
	"zenpdf-worker/internal/pkg/container"
)

const shutdownGrace = 30 * time.Second

func main() {
	envPath := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := configs.Load(*envPath)
	if err != nil {
		panic(err)
	}

	c := container.New(cfg)
	defer c.Logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := ophttp.New(":"+trimColon(cfg.Server.Port), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, c.Logger, c.Worker)

	go func() {
		c.Logger.Info("starting operational http surface", zap.String("port", cfg.Server.Port))
		if err := srv.Run(); err != nil {
			c.Logger.Error("operational http surface stopped", zap.Error(err))
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Logger.Info("starting worker loop", zap.String("workerId", cfg.Worker.ID))
		c.Worker.Run(ctx)
	}()

	<-ctx.Done()
	c.Logger.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.Logger.Error("error shutting down operational http surface", zap.Error(err))
	}

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		c.Logger.Warn("worker loop did not drain within the shutdown grace period")
	}

	if err := c.Close(); err != nil {
		c.Logger.Error("error closing container resources", zap.Error(err))
	}
}

// trimColon strips a leading colon from port so callers can set
// ZENPDF_HTTP_PORT to either "9091" or ":9091" without producing a
// malformed listen address.
func trimColon(port string) string {
	if len(port) > 0 && port[0] == ':' {
		return port[1:]
	}
	return port
}
