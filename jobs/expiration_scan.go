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

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// StoreLister enumerates the stores holding inventory.
type StoreLister interface {
	ListStoreIDs(ctx context.Context) ([]int64, error)
}

// ExpirationSource classifies the items of a store by expiration risk.
type ExpirationSource interface {
	StoreLister
	ExpirationRisks(ctx context.Context, storeID int64, tier inventory.RiskTier) ([]inventory.RiskRecord, error)
}

// InventoryGauges receives the results of the scans.
type InventoryGauges interface {
	SetExpiration(storeID int64, tiers []string, counts map[string]int)
	SetReorderLines(storeID int64, n int)
}

// ExpirationScanJob refreshes the expiration gauges of every store.
type ExpirationScanJob struct {
	Inventory ExpirationSource
	Gauges    InventoryGauges
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

func NewExpirationScanJob(inv ExpirationSource, gauges InventoryGauges, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExpirationScanJob {
	return &ExpirationScanJob{Inventory: inv, Gauges: gauges, Logger: logger, Metrics: metrics}
}

// Handle processes expiration scan tasks.
func (j *ExpirationScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Inventory == nil {
		return errors.New("expiration scan: handler not configured")
	}
	var payload ScanPayload
	if err := decodePayload(t, &payload); err != nil {
		return fmt.Errorf("expiration scan: %v: %w", err, asynq.SkipRetry)
	}
	_, err := j.Run(ctx, payload.StoreID)
	return err
}

// Run scans one store, or every store when storeID is 0, and returns the
// tier counts per store.
func (j *ExpirationScanJob) Run(ctx context.Context, storeID int64) (result map[int64]map[inventory.RiskTier]int, resultErr error) {
	tracker := j.metrics().Track(TaskExpirationScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskExpirationScan)
	start := time.Now()
	stores, err := scanTargets(ctx, j.Inventory, storeID)
	if err != nil {
		logger.Error("load stores", slog.Any("error", err))
		return nil, err
	}

	tiers := make([]string, 0, len(inventory.RiskTiers))
	for _, tier := range inventory.RiskTiers {
		tiers = append(tiers, string(tier))
	}
	result = make(map[int64]map[inventory.RiskTier]int, len(stores))
	for _, id := range stores {
		records, err := j.Inventory.ExpirationRisks(ctx, id, "")
		if err != nil {
			logger.Error("classify store", slog.Int64("store_id", id), slog.Any("error", err))
			return result, err
		}
		counts := make(map[inventory.RiskTier]int, len(tiers))
		labels := make(map[string]int, len(tiers))
		for _, rec := range records {
			counts[rec.Tier]++
			labels[string(rec.Tier)]++
		}
		result[id] = counts
		if j.Gauges != nil {
			j.Gauges.SetExpiration(id, tiers, labels)
		}
		if counts[inventory.RiskExpired] > 0 || counts[inventory.RiskCritical] > 0 {
			logger.Warn("items expiring",
				slog.Int64("store_id", id),
				slog.Int("expired", counts[inventory.RiskExpired]),
				slog.Int("critical", counts[inventory.RiskCritical]))
		}
	}
	flagged := map[string]int{}
	for _, counts := range result {
		flagged[string(inventory.RiskExpired)] += counts[inventory.RiskExpired]
		flagged[string(inventory.RiskCritical)] += counts[inventory.RiskCritical]
	}
	j.metrics().ObserveScan(TaskExpirationScan, len(stores), flagged)
	logger.Info("completed expiration scan", slog.Int("stores", len(stores)), slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (j *ExpirationScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func scanTargets(ctx context.Context, stores StoreLister, storeID int64) ([]int64, error) {
	if storeID > 0 {
		return []int64{storeID}, nil
	}
	return stores.ListStoreIDs(ctx)
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}
