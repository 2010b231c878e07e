package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/observability"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/shared"
)

// IdempotencyCleanupJob prunes processed conversion keys so the table does not
// grow without bound. Keys older than the retention window can no longer guard
// a retry that matters.
type IdempotencyCleanupJob struct {
	Store   *shared.IdempotencyStore
	Logger  *slog.Logger
	Metrics *observability.Metrics

	// Retention applies when the payload does not carry its own window.
	Retention time.Duration
}

// NewIdempotencyCleanupJob initialises the cleanup handler.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger, metrics *observability.Metrics, retention time.Duration) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, Logger: logger, Metrics: metrics, Retention: retention}
}

// Handle executes the cleanup.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: store not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = j.Retention
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	logger := j.logger().With(slog.Duration("retention", retention))
	if err := j.Store.Cleanup(ctx, retention); err != nil {
		j.Metrics.RecordJob(TaskIdempotencyCleanup, "error")
		logger.Error("cleanup failed", slog.Any("error", err))
		return err
	}
	j.Metrics.RecordJob(TaskIdempotencyCleanup, "ok")
	logger.Info("idempotency keys pruned")
	return nil
}

func (j *IdempotencyCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskIdempotencyCleanup))
	}
	return slog.Default().With(slog.String("job", TaskIdempotencyCleanup))
}
