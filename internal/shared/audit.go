package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog is one row of the audit_logs trail. Meta carries the
// operation-specific detail as JSON.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger appends money-relevant operations to audit_logs. Failures
// are reported to the caller, who decides whether to block the operation.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns an AuditLogger backed by the given pool.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists one trail entry. Action, Entity and EntityID are
// mandatory; a zero At defaults to the database clock.
func (l *AuditLogger) Record(ctx context.Context, entry AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		return errors.New("audit entry requires action, entity and entity_id")
	}
	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !entry.At.IsZero() {
		at = &entry.At
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`,
		entry.ActorID, entry.Action, entry.Entity, entry.EntityID, meta, at)
	return err
}
