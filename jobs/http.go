package jobs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-store/internal/platform/httpx"
)

// Enqueuer is the part of *asynq.Client the API server uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client lets the API server trigger scans on demand.
type Client struct {
	client Enqueuer
	closer func() error
}

// NewClient wraps an asynq client on redisOpts.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client, closer: client.Close}
}

// EnqueueScan queues an immediate scan of one store. Unknown task types are
// a bad request.
func (c *Client) EnqueueScan(ctx context.Context, taskType string, storeID int64) (*asynq.TaskInfo, error) {
	build, ok := scanBuilders[taskType]
	if !ok {
		return nil, httpx.ErrBadRequest
	}
	task, err := build(storeID)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

var scanBuilders = map[string]func(int64) (*asynq.Task, error){
	TaskExpirationScan: NewExpirationScanTask,
	TaskReorderScan:    NewReorderScanTask,
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer()
}

// QueueInspector reports queue state. *asynq.Inspector satisfies it.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler serves /jobs: queue health and manual scan triggers.
type Handler struct {
	inspector QueueInspector
	client    *Client
	logger    *slog.Logger
}

// NewHandler builds the jobs handler. inspector and client are nil when the
// server runs without Redis.
func NewHandler(inspector QueueInspector, client *Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, client: client, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/stores/{storeID}/expiration-scan", h.enqueue(TaskExpirationScan))
	r.Post("/stores/{storeID}/reorder-scan", h.enqueue(TaskReorderScan))
}

type queueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

type healthResponse struct {
	Queues []queueStats `json:"queues"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	out := healthResponse{Queues: make([]queueStats, 0, len(Queues))}
	for _, queue := range Queues {
		stats := queueStats{Queue: queue}
		if h.inspector != nil {
			info, err := h.inspector.GetQueueInfo(queue)
			if err != nil {
				h.logger.Warn("jobs health", slog.String("queue", queue), slog.Any("error", err))
				httpx.Problem(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), "queue unavailable")
				return
			}
			if info != nil {
				stats.Pending = info.Pending
				stats.Active = info.Active
				stats.Scheduled = info.Scheduled
				stats.Retry = info.Retry
				stats.Archived = info.Archived
			}
		}
		out.Queues = append(out.Queues, stats)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) enqueue(taskType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := httpx.ParamInt64(r, "storeID")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if h.client == nil {
			httpx.Problem(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), "job queue not configured")
			return
		}
		info, err := h.client.EnqueueScan(r.Context(), taskType, storeID)
		if err != nil {
			h.logger.Error("enqueue scan", slog.String("task", taskType), slog.Int64("store_id", storeID), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": info.ID, "queue": info.Queue})
	}
}
