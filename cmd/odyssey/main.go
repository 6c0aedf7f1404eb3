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

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/odyssey-store/internal/analytics"
	"github.com/odyssey-erp/odyssey-store/internal/app"
	"github.com/odyssey-erp/odyssey-store/internal/inventory"
	"github.com/odyssey-erp/odyssey-store/internal/masterdata/suppliers"
	"github.com/odyssey-erp/odyssey-store/internal/menu"
	"github.com/odyssey-erp/odyssey-store/internal/observability"
	"github.com/odyssey-erp/odyssey-store/internal/procurement"
	"github.com/odyssey-erp/odyssey-store/internal/sales"
	"github.com/odyssey-erp/odyssey-store/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	logger := app.NewLogger(cfg)

	infra, closeInfra, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeInfra()

	services := app.NewServices(cfg, logger, infra)
	if err := services.Cache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("subscribe cache invalidation", slog.Any("error", err))
	}

	metrics := observability.NewMetrics()

	var (
		inspector jobs.QueueInspector
		jobClient *jobs.Client
	)
	if infra.Redis != nil {
		redisOpts := cfg.AsynqRedis()
		asynqInspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := asynqInspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		inspector = asynqInspector
		jobClient = jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SupplierHandler:    suppliers.NewHandler(logger, services.Suppliers),
		InventoryHandler:   inventory.NewHandler(logger, services.Inventory),
		ProcurementHandler: procurement.NewHandler(logger, services.Procurement),
		MenuHandler:        menu.NewHandler(logger, services.Menus),
		SalesHandler:       sales.NewHandler(logger, services.Sales),
		AnalyticsHandler:   analytics.NewHandler(logger, services.Analytics),
		JobHandler:         jobs.NewHandler(inspector, jobClient, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("storage", cfg.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
