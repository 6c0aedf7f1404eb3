package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/odyssey-erp/odyssey-store/internal/app"
	jobmetrics "github.com/odyssey-erp/odyssey-store/internal/jobs"
	"github.com/odyssey-erp/odyssey-store/internal/observability"
	"github.com/odyssey-erp/odyssey-store/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Default().Warn("load .env", slog.Any("error", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	cfg.RedisRequired = true

	logger := app.NewLogger(cfg)
	if !cfg.UsesPostgres() {
		logger.Warn("worker running on memory storage, scans only see this process's data")
	}

	infra, closeInfra, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeInfra()

	services := app.NewServices(cfg, logger, infra)
	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	expirationJob := jobs.NewExpirationScanJob(services.Inventory, metrics.Inventory, logger, jobMetrics)
	reorderJob := jobs.NewReorderScanJob(services.Inventory, metrics.Inventory, services.Analytics, logger, jobMetrics)
	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskExpirationScan, Handler: expirationJob.Handle},
		{Type: jobs.TaskReorderScan, Handler: reorderJob.Handle},
	}

	expirationTask, err := jobs.NewExpirationScanTask(0)
	if err != nil {
		logger.Error("build expiration task", slog.Any("error", err))
		os.Exit(1)
	}
	reorderTask, err := jobs.NewReorderScanTask(0)
	if err != nil {
		logger.Error("build reorder task", slog.Any("error", err))
		os.Exit(1)
	}
	cron := []jobs.CronRegistration{
		{Spec: jobs.ExpirationScanCron, Task: expirationTask},
		{Spec: jobs.ReorderScanCron, Task: reorderTask},
	}

	if services.Idempotency != nil {
		cleanupJob := jobs.NewIdempotencyCleanupJob(services.Idempotency, logger, jobMetrics)
		cleanupTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyRetention)
		if err != nil {
			logger.Error("build cleanup task", slog.Any("error", err))
			os.Exit(1)
		}
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle})
		cron = append(cron, jobs.CronRegistration{Spec: jobs.IdempotencyCleanupCron, Task: cleanupTask})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.AsynqRedis(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    handlers,
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
