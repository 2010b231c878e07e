package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/observability"
)

// CostIntegrityJob recomputes, for every finalised receipt, the sum of the
// per-item cost allocations and compares it against the receipt's cost pool.
// A drift beyond the tolerance means an allocation was persisted inconsistently
// and needs manual review.
type CostIntegrityJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewCostIntegrityJob initialises the integrity scan handler.
func NewCostIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *observability.Metrics) *CostIntegrityJob {
	return &CostIntegrityJob{Pool: pool, Logger: logger, Metrics: metrics}
}

type costDrift struct {
	ReciboID int64
	Numero   string
	Pool     float64
	Asignado float64
}

// Handle executes the scan.
func (j *CostIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("cost integrity: pool not configured")
	}
	var payload CostIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Tolerance <= 0 {
		payload.Tolerance = 0.05
	}

	start := time.Now()
	logger := j.logger().With(slog.Float64("tolerance", payload.Tolerance))
	logger.Info("starting allocation scan")

	scanned, drifts, err := j.scan(ctx, payload.Tolerance)
	if err != nil {
		j.Metrics.RecordJob(TaskCostIntegrity, "error")
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	for _, d := range drifts {
		logger.Warn("allocation drift detected",
			slog.Int64("recibo_id", d.ReciboID),
			slog.String("numero", d.Numero),
			slog.Float64("pool", d.Pool),
			slog.Float64("asignado", d.Asignado),
			slog.Float64("drift", d.Asignado-d.Pool),
		)
	}

	result := "ok"
	if len(drifts) > 0 {
		result = "drift"
	}
	j.Metrics.RecordJob(TaskCostIntegrity, result)
	logger.Info("completed allocation scan",
		slog.Int("receipts", scanned),
		slog.Int("drifts", len(drifts)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *CostIntegrityJob) scan(ctx context.Context, tolerance float64) (int, []costDrift, error) {
	rows, err := j.Pool.Query(ctx, `
		SELECT r.id, r.numero, r.total_adicionales::double precision,
		       COALESCE(SUM(i.costos_adicionales_unitario * i.cantidad), 0)::double precision
		FROM importaciones_recibos r
		LEFT JOIN importaciones_items i ON i.recibo_id = r.id
		WHERE r.estado = 'RECEPCIONADO'
		GROUP BY r.id, r.numero, r.total_adicionales
		ORDER BY r.id`)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	scanned := 0
	drifts := make([]costDrift, 0)
	for rows.Next() {
		var d costDrift
		if err := rows.Scan(&d.ReciboID, &d.Numero, &d.Pool, &d.Asignado); err != nil {
			return 0, nil, err
		}
		scanned++
		if math.Abs(d.Asignado-d.Pool) > tolerance {
			drifts = append(drifts, d)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}
	return scanned, drifts, nil
}

func (j *CostIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCostIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskCostIntegrity))
}
