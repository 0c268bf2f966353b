// Package container wires every long-lived dependency the worker
// process needs — queue RPC client, blob transfer, tool operations,
// dispatcher, job history store, and the claim loop itself — from a
// loaded configs.Config.
package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"zenpdf-worker/configs"
	"zenpdf-worker/internal/dispatcher"
	"zenpdf-worker/internal/pkg/blobtransfer"
	"zenpdf-worker/internal/pkg/cache"
	"zenpdf-worker/internal/pkg/database"
	"zenpdf-worker/internal/pkg/external"
	"zenpdf-worker/internal/pkg/jobhistory"
	"zenpdf-worker/internal/pkg/logger"
	"zenpdf-worker/internal/pkg/metrics"
	"zenpdf-worker/internal/pkg/queueclient"
	"zenpdf-worker/internal/pkg/toolrunner"
	"zenpdf-worker/internal/pkg/tracing"
	"zenpdf-worker/internal/pkg/webfetch"
	"zenpdf-worker/internal/tools"
	"zenpdf-worker/internal/worker"

	"github.com/go-redis/redis/v8"
)

// Container holds every dependency the worker process needs, built
// once at startup.
type Container struct {
	Config  *configs.Config
	Logger  *zap.Logger
	Metrics *metrics.WorkerMetrics
	Tracer  *tracing.TracerProvider

	RedisClient *redis.Client
	DB          *gorm.DB
	History     jobhistory.Repository

	Queue      *queueclient.Client
	Transfer   *blobtransfer.Transfer
	Fetcher    *webfetch.Fetcher
	Runner     *toolrunner.Runner
	Ops        *tools.Ops
	Dispatcher *dispatcher.Dispatcher

	Worker *worker.Loop
}

// New builds a fully wired Container from cfg, failing fast (via
// logger.Fatal) on any dependency that cannot be established.
func New(cfg *configs.Config) *Container {
	log := logger.NewLogger(cfg.Logger)

	db, err := database.NewDB(cfg.History)
	if err != nil {
		log.Fatal("failed to connect to job history store", zap.Error(err))
	}
	if err := database.RunMigrations(db, cfg.History.GetDialect(), jobhistory.Migrations()); err != nil {
		log.Fatal("failed to run job history migrations", zap.Error(err))
	}
	history := jobhistory.NewRepository(db)

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
	} else {
		log.Info("hostname safety cache disabled, no redis address configured")
	}
	hostCache := cache.NewHostnameSafetyCache(redisClient, log)

	var tp *tracing.TracerProvider
	if cfg.Jaeger.URL != "" {
		tp, err = tracing.InitTracer(tracing.Config{
			ServiceName:  cfg.ServiceName,
			Environment:  cfg.Environment,
			JaegerURL:    cfg.Jaeger.URL,
			SamplingRate: cfg.Jaeger.SamplingRate,
		}, log)
		if err != nil {
			log.Fatal("failed to initialize tracing", zap.Error(err))
		}
	} else {
		log.Info("tracing disabled, no jaeger url configured")
	}

	workerMetrics := metrics.NewWorkerMetrics()

	queue := queueclient.New(cfg.Queue.URL, cfg.Queue.Token, external.DefaultRetryConfig(), 30*time.Second)
	transfer := blobtransfer.New(queue, cfg.Queue.Token)

	fetcher := webfetch.New(log, hostCache, time.Hour).WithRateLimit(cfg.WebFetch.RateLimitPerMinute)
	fetcher.AllowHostFallback = cfg.WebFetch.AllowHostnameFallback

	runner := toolrunner.New()
	ops := tools.New(runner, fetcher)
	disp := dispatcher.New(ops, runner, cfg.Compress)

	loop := &worker.Loop{
		WorkerID:          cfg.Worker.ID,
		WorkerToken:       cfg.Queue.Token,
		Queue:             queue,
		Transfer:          transfer,
		Dispatcher:        disp,
		History:           history,
		Metrics:           workerMetrics,
		Logger:            log,
		PollInterval:      cfg.Worker.PollInterval,
		HeartbeatInterval: cfg.Worker.HeartbeatInterval,
	}

	return &Container{
		Config:      cfg,
		Logger:      log,
		Metrics:     workerMetrics,
		Tracer:      tp,
		RedisClient: redisClient,
		DB:          db,
		History:     history,
		Queue:       queue,
		Transfer:    transfer,
		Fetcher:     fetcher,
		Runner:      runner,
		Ops:         ops,
		Dispatcher:  disp,
		Worker:      loop,
	}
}

// Close releases resources that need an explicit shutdown step.
func (c *Container) Close() error {
	if c.Tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Tracer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown tracer: %w", err)
		}
	}
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	return nil
}
