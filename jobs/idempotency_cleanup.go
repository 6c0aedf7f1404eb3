package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-store/internal/jobs"
)

// DefaultIdempotencyRetention applies when a task carries no retention.
const DefaultIdempotencyRetention = 30 * 24 * time.Hour

// KeyCleaner removes processed idempotency keys.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob prunes the idempotency key table.
type IdempotencyCleanupJob struct {
	Store   KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

func NewIdempotencyCleanupJob(store KeyCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes cleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	var payload CleanupPayload
	if err := decodePayload(t, &payload); err != nil {
		return fmt.Errorf("idempotency cleanup: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Retention <= 0 {
		payload.Retention = DefaultIdempotencyRetention
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskIdempotencyCleanup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	if j.Store == nil {
		return nil
	}
	logger := jobLogger(j.Logger, TaskIdempotencyCleanup)
	removed, err := j.Store.Cleanup(ctx, payload.Retention)
	if err != nil {
		logger.Error("cleanup keys", slog.Any("error", err))
		return err
	}
	metrics.ObserveScan(TaskIdempotencyCleanup, 0, map[string]int{"pruned_key": int(removed)})
	logger.Info("idempotency keys pruned", slog.Duration("retention", payload.Retention), slog.Int64("removed", removed))
	return nil
}
