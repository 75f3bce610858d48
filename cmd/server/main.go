package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/petflix/notifier/internal/api"
	"github.com/petflix/notifier/internal/config"
	"github.com/petflix/notifier/internal/db"
	"github.com/petflix/notifier/internal/metrics"
	"github.com/petflix/notifier/internal/push"
	"github.com/petflix/notifier/internal/queue"
	"github.com/petflix/notifier/internal/ratelimiter"
	"github.com/petflix/notifier/internal/repository"
	"github.com/petflix/notifier/internal/service"
	"github.com/petflix/notifier/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	intake := queue.New(cfg.IntakeCapacity)
	m.RegisterIntakeDepth(reg, intake.Depth)

	events := repository.NewPgEventRepository(pool)
	subs := repository.NewPgSubscriptionRepository(pool)
	sender := push.NewGatewaySender(cfg.PushGatewayURL, cfg.PushTimeout)
	limiter := ratelimiter.New(cfg.DispatchRate)
	svc := service.NewEventService(events, subs, intake, logger)

	// ---- background workers ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	writers := worker.NewWriterPool(cfg.IntakeWriters, intake, events, logger, m.WriterHook())
	writers.Start(workerCtx)

	onDigest, onFailed, onTick, onSkipped := m.ProcessorHooks()
	processor := worker.NewProcessor(
		events, subs, sender, limiter,
		cfg.GroupingWindow, cfg.ProcessingInterval, cfg.DispatchTimeout,
		logger,
		worker.ProcessorHooks{
			OnDigest:  onDigest,
			OnFailed:  onFailed,
			OnTick:    onTick,
			OnSkipped: onSkipped,
		},
	)
	processor.Start(workerCtx)

	retention := worker.NewRetentionWorker(events, cfg.CleanupInterval, cfg.RetentionPeriod, logger, m.RetentionHook())
	retention.Start(workerCtx)

	// ---- HTTP server ----
	router := api.NewRouter(svc, intake, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
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

	// 2. Signal the workers to stop. Writers finish persisting what they
	// already pulled; a tick in flight completes its current partition set.
	cancelWorkers()

	// 3. Wait for every worker to wind down before the pool closes.
	writers.Wait()
	processor.Wait()
	retention.Wait()

	logger.Info("server stopped cleanly")
}
