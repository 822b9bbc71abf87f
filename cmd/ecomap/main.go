package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/ecomap/internal/adapters/http/api"
	"github.com/okian/ecomap/internal/adapters/http/swagger"
	"github.com/okian/ecomap/internal/adapters/repository"
	app "github.com/okian/ecomap/internal/app"
	"github.com/okian/ecomap/internal/config"
	"github.com/okian/ecomap/pkg/logger"
	"github.com/okian/ecomap/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsSpec         = "@every 10s"
	serviceMetricsSpec        = "@every 5s"
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// The custom registry carries our own system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(metricsOptions(cfg)...)

	svc, err := newService(cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load seed", logger.String("seed_file", cfg.SeedFile), logger.Error(err))
		os.Exit(1)
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}

	scheduler, err := newMetricsScheduler(svc)
	if err != nil {
		loggerInstance.Error(ctx, "failed to schedule metrics", logger.Error(err))
		os.Exit(1)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
	}
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	<-scheduler.Stop().Done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	// Drain accepted joins once no new requests can arrive.
	if err := svc.Stop(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService builds the service from configuration, loading the seed
// file when one is configured.
func newService(cfg *config.Config, l logger.Logger) (*app.Service, error) {
	opts := []app.Option{
		app.WithLogger(l),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.JoinQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithNearbyRadius(cfg.NearbyRadiusKm),
	}
	if cfg.SeedFile != "" {
		seed, err := repository.LoadSeed(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.WithSeed(seed))
	}
	return app.New(opts...), nil
}

// metricsOptions labels every metric with the configured environment.
func metricsOptions(cfg *config.Config) []metrics.Option {
	if cfg.Environment == "" {
		return nil
	}
	return []metrics.Option{metrics.WithConstLabels(map[string]string{"env": cfg.Environment})}
}

// newHandler registers the API and docs routes.
func newHandler(ctx context.Context, svc *app.Service, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)
	return mux
}

// newMetricsScheduler registers the periodic system and service metric
// refreshes. The caller starts and stops it.
func newMetricsScheduler(svc *app.Service) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(systemMetricsSpec, updateSystemMetrics); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(serviceMetricsSpec, func() { updateServiceMetrics(svc) }); err != nil {
		return nil, err
	}
	return c, nil
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges from the service stats.
// GetStats already refreshes the queue length.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if events, ok := stats["events"].(int); ok {
		metrics.UpdateCatalogEvents(events)
	}
	if participants, ok := stats["participants"].(int); ok {
		metrics.UpdateLeaderboardMembers(participants)
	}
	if workerCount, ok := stats["workerCount"].(int); ok && stats["started"] == true {
		metrics.UpdateWorkerCount(workerCount)
	}
}
