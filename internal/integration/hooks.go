package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/importaciones"
)

// Event types written to the outbox.
const (
	EventoReciboRecepcionado = "RECIBO_RECEPCIONADO"
	EventoReciboConvertido   = "RECIBO_CONVERTIDO"
)

// Hooks persists importaciones domain events into the integration_eventos
// outbox so downstream consumers (accounting sync, stock intake) can process
// them asynchronously. The event id is derived from the source, so replaying
// a transition never produces a second row.
type Hooks struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewHooks constructs the outbox writer.
func NewHooks(pool *pgxpool.Pool, logger *slog.Logger) *Hooks {
	return &Hooks{pool: pool, logger: logger}
}

// HandleReciboRecepcionado records the terminal transition of a receipt.
func (h *Hooks) HandleReciboRecepcionado(ctx context.Context, evt importaciones.ReciboRecepcionadoEvent) error {
	var total float64
	for _, linea := range evt.Lineas {
		total += monetary(float64(linea.Cantidad), linea.CostoFinalUnitario)
	}
	payload := map[string]any{
		"numero":            evt.Numero,
		"proveedor_id":      evt.ProveedorID,
		"fecha_recepcion":   evt.FechaRecepcion.Format(time.RFC3339),
		"total_adicionales": round2(evt.TotalAdicionales),
		"total_final":       round2(total),
		"lineas":            len(evt.Lineas),
	}
	id := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("RECEP:%d", evt.ID)))
	return h.insert(ctx, id, EventoReciboRecepcionado, evt.ID, payload)
}

// HandleReciboConvertido records a receipt being copied into the purchase
// ledger.
func (h *Hooks) HandleReciboConvertido(ctx context.Context, evt importaciones.ReciboConvertidoEvent) error {
	payload := map[string]any{
		"numero":       evt.Numero,
		"proveedor_id": evt.ProveedorID,
		"ref_id":       evt.RefID,
		"compras":      evt.Compras,
		"converted_at": evt.ConvertedAt.Format(time.RFC3339),
	}
	id := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("CONV:%d", evt.ID)))
	return h.insert(ctx, id, EventoReciboConvertido, evt.ID, payload)
}

func (h *Hooks) insert(ctx context.Context, id uuid.UUID, tipo string, reciboID int64, payload map[string]any) error {
	if h == nil || h.pool == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("integration: encode %s: %w", tipo, err)
	}
	tag, err := h.pool.Exec(ctx, `
		INSERT INTO integration_eventos (id, tipo, recibo_id, payload, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO NOTHING`, id, tipo, reciboID, body)
	if err != nil {
		return fmt.Errorf("integration: persist %s: %w", tipo, err)
	}
	if tag.RowsAffected() == 0 && h.logger != nil {
		h.logger.Debug("integration event already recorded",
			slog.String("tipo", tipo),
			slog.Int64("recibo_id", reciboID),
		)
	}
	return nil
}
