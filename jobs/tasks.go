package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every background task runs on.
	QueueDefault = "default"
	// TaskIdempotencyCleanup removes conversion keys older than the retention window.
	TaskIdempotencyCleanup = "idempotencia:limpiar"
	// TaskCostIntegrity verifies that per-item allocations add up to each receipt's cost pool.
	TaskCostIntegrity = "costos:verificar"
)

// IdempotencyCleanupPayload bounds how far back the cleanup reaches.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask builds the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// CostIntegrityPayload configures the allocation scan.
type CostIntegrityPayload struct {
	// Tolerance is the maximum absolute drift, in currency units, allowed
	// between a receipt's cost pool and the sum of its item allocations.
	Tolerance float64 `json:"tolerance"`
}

// NewCostIntegrityTask builds the allocation integrity task.
func NewCostIntegrityTask(tolerance float64) (*asynq.Task, error) {
	body, err := json.Marshal(CostIntegrityPayload{Tolerance: tolerance})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCostIntegrity, body, asynq.Queue(QueueDefault)), nil
}
