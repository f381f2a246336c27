package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/api"
	"github.com/streamhub/notifier/internal/api/handler"
	"github.com/streamhub/notifier/internal/config"
	"github.com/streamhub/notifier/internal/db"
	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/metrics"
	"github.com/streamhub/notifier/internal/ratelimiter"
	"github.com/streamhub/notifier/internal/service"
	"github.com/streamhub/notifier/internal/spawner"
	"github.com/streamhub/notifier/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.LoadServer()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// ---- database (optional: health check and dev schema) ----
	var pinger handler.Pinger
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
			logger.Info("database migrations applied")
		}

		pool, err := db.Connect(ctx, cfg.DatabaseURL, 2)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		pinger = pool
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	limiter := ratelimiter.New(cfg.SpawnMinInterval)
	sp := spawner.NewProcessSpawner(cfg.NotifierBin, cfg.LogDir, logger)
	svc := service.NewTriggerService(sp, limiter, service.TriggerHooks{
		OnSpawn: m.ObserveSpawn,
		OnRejected: func(kind domain.JobKind) {
			m.SpawnsRejected.WithLabelValues(string(kind)).Inc()
		},
	}, logger)

	// ---- scheduler ----
	// Context for background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	if cfg.ReminderInterval > 0 {
		schedulerW := worker.NewSchedulerWorker(svc, limiter, cfg.ReminderInterval, cfg.ReminderWithinDays, logger,
			func(kind domain.JobKind) { m.ObserveSpawn(kind, service.TriggerScheduler) })
		wg.Add(1)
		go func() {
			defer wg.Done()
			schedulerW.Run(workerCtx)
		}()
	}

	// ---- HTTP server ----
	router := api.NewRouter(svc, pinger, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("notifier_bin", cfg.NotifierBin),
			zap.String("log_dir", cfg.LogDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the scheduler. Spawned runs are detached and keep going.
	cancelWorkers()
	wg.Wait()

	logger.Info("server stopped cleanly")
}
