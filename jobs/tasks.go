package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault carries the store scans.
	QueueDefault = "default"
	// QueueMaintenance carries housekeeping such as key cleanup.
	QueueMaintenance = "maintenance"

	// TaskExpirationScan classifies every store's items by expiration risk.
	TaskExpirationScan = "inventory:expiration_scan"
	// TaskReorderScan counts reorder lines and warms the dashboards.
	TaskReorderScan = "procurement:reorder_scan"
	// TaskIdempotencyCleanup drops processed keys past their retention.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// Queues lists every queue the worker serves.
var Queues = []string{QueueDefault, QueueMaintenance}

// Cron schedules, evaluated in UTC.
const (
	ExpirationScanCron     = "0 5 * * *"
	ReorderScanCron        = "30 5 * * *"
	IdempotencyCleanupCron = "0 3 * * 0"
)

// ScanPayload limits a scan to one store. StoreID 0 scans every store.
type ScanPayload struct {
	StoreID int64 `json:"store_id,omitempty"`
}

// CleanupPayload carries the retention of processed keys.
type CleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewExpirationScanTask constructs an Asynq task for the expiration scan.
func NewExpirationScanTask(storeID int64) (*asynq.Task, error) {
	return newScanTask(TaskExpirationScan, storeID)
}

// NewReorderScanTask constructs an Asynq task for the reorder scan.
func NewReorderScanTask(storeID int64) (*asynq.Task, error) {
	return newScanTask(TaskReorderScan, storeID)
}

// NewIdempotencyCleanupTask constructs an Asynq task for key cleanup.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(CleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueMaintenance), asynq.MaxRetry(1)), nil
}

func newScanTask(taskType string, storeID int64) (*asynq.Task, error) {
	body, err := json.Marshal(ScanPayload{StoreID: storeID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

func decodePayload(t *asynq.Task, dest any) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	return json.Unmarshal(t.Payload(), dest)
}
