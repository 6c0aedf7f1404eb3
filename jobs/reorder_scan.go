package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-store/internal/inventory"
	jobmetrics "github.com/odyssey-erp/odyssey-store/internal/jobs"
)

// ReorderSource lists the items of a store needing reorder.
type ReorderSource interface {
	StoreLister
	LowStock(ctx context.Context, storeID int64) ([]inventory.ItemView, error)
}

// DashboardWarmer preloads the dashboard cache of a store.
type DashboardWarmer interface {
	Warm(ctx context.Context, storeID int64) error
}

// ReorderScanJob counts reorder lines per store and warms the dashboards.
type ReorderScanJob struct {
	Inventory ReorderSource
	Gauges    InventoryGauges
	Dashboard DashboardWarmer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

func NewReorderScanJob(inv ReorderSource, gauges InventoryGauges, dashboard DashboardWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReorderScanJob {
	return &ReorderScanJob{Inventory: inv, Gauges: gauges, Dashboard: dashboard, Logger: logger, Metrics: metrics}
}

// Handle processes reorder scan tasks.
func (j *ReorderScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Inventory == nil {
		return errors.New("reorder scan: handler not configured")
	}
	var payload ScanPayload
	if err := decodePayload(t, &payload); err != nil {
		return fmt.Errorf("reorder scan: %v: %w", err, asynq.SkipRetry)
	}
	_, err := j.Run(ctx, payload.StoreID)
	return err
}

// Run returns the number of reorder lines per scanned store. A failed
// dashboard warmup is logged and does not fail the run.
func (j *ReorderScanJob) Run(ctx context.Context, storeID int64) (result map[int64]int, resultErr error) {
	tracker := j.metrics().Track(TaskReorderScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskReorderScan)
	start := time.Now()
	stores, err := scanTargets(ctx, j.Inventory, storeID)
	if err != nil {
		logger.Error("load stores", slog.Any("error", err))
		return nil, err
	}

	result = make(map[int64]int, len(stores))
	for _, id := range stores {
		items, err := j.Inventory.LowStock(ctx, id)
		if err != nil {
			logger.Error("list low stock", slog.Int64("store_id", id), slog.Any("error", err))
			return result, err
		}
		result[id] = len(items)
		if j.Gauges != nil {
			j.Gauges.SetReorderLines(id, len(items))
		}
		if j.Dashboard == nil {
			continue
		}
		warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		if err := j.Dashboard.Warm(warmCtx, id); err != nil {
			logger.Warn("warm dashboard", slog.Int64("store_id", id), slog.Any("error", err))
		}
		cancel()
	}
	lines := 0
	for _, n := range result {
		lines += n
	}
	j.metrics().ObserveScan(TaskReorderScan, len(stores), map[string]int{"reorder": lines})
	logger.Info("completed reorder scan", slog.Int("stores", len(stores)), slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (j *ReorderScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
