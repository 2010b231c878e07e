package importaciones

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/compras"
)

// CompraLedgerPort exposes the purchase ledger write the bridge needs.
type CompraLedgerPort interface {
	RegistrarCompras(ctx context.Context, entradas []compras.CompraInput) ([]compras.Compra, error)
}

// Price source markers written on converted ledger rows.
const (
	PrecioOrigenAsignado = "ASIGNADO"
	PrecioOrigenEditado  = "EDITADO"
)

// ConvertirACompra copies a RECEPCIONADO receipt into the purchase ledger,
// one row per line item. The operator may override the final unit price of
// any item (preciosEditados, keyed by item id); rows record whether the
// allocator output or the operator value was written. The receipt itself
// is never mutated and remains the audit trail; an idempotency key keyed
// by receipt number blocks a second conversion.
func (s *Service) ConvertirACompra(ctx context.Context, id int64, preciosEditados map[int64]float64) ([]compras.Compra, error) {
	if s.compras == nil {
		return nil, fmt.Errorf("%w: libro de compras no configurado", ErrValidation)
	}
	recibo, err := s.repo.GetRecibo(ctx, id)
	if err != nil {
		return nil, err
	}
	if recibo.Estado != EstadoRecepcionado {
		return nil, &TransitionError{Desde: recibo.Estado, Hasta: EstadoRecepcionado}
	}
	if !recibo.MetodoPago.IsValid() {
		return nil, fmt.Errorf("%w: metodo de pago faltante", ErrValidation)
	}

	entradas := make([]compras.CompraInput, 0, len(recibo.Items))
	for _, item := range recibo.Items {
		if item.Cantidad <= 0 {
			return nil, fmt.Errorf("%w: cantidad invalida en item %d", ErrValidation, item.ID)
		}
		origen := PrecioOrigenAsignado
		var precio float64
		if editado, ok := preciosEditados[item.ID]; ok {
			if editado < 0 {
				return nil, fmt.Errorf("%w: precio editado negativo en item %d", ErrValidation, item.ID)
			}
			precio = editado
			origen = PrecioOrigenEditado
		} else {
			if item.CostoFinalUnitario == nil {
				return nil, fmt.Errorf("%w: item %d sin costo final asignado", ErrValidation, item.ID)
			}
			precio = *item.CostoFinalUnitario
		}
		entradas = append(entradas, compras.CompraInput{
			Item:           item.Descripcion,
			Cantidad:       item.Cantidad,
			PrecioUnitario: precio,
			ProveedorID:    recibo.ProveedorID,
			MetodoPago:     string(recibo.MetodoPago),
			ReciboOrigenID: recibo.ID,
			Tracking:       recibo.Tracking,
			Transportista:  recibo.Transportista,
			PrecioOrigen:   origen,
		})
	}

	clave := fmt.Sprintf("CONV:%s", recibo.Numero)
	insertada := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, clave, "importaciones.conversion"); err != nil {
			return nil, err
		}
		insertada = true
	}

	registradas, err := s.compras.RegistrarCompras(ctx, entradas)
	if err != nil {
		if insertada {
			_ = s.idempotency.Delete(ctx, clave)
		}
		return nil, err
	}

	refID := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("RECIBO:%d", recibo.ID)))
	s.recordAudit(ctx, "RECIBO_CONVERT", recibo.ID, map[string]any{
		"numero":  recibo.Numero,
		"compras": len(registradas),
		"ref":     refID.String(),
	})
	if s.integration != nil {
		evt := ReciboConvertidoEvent{
			ID:          recibo.ID,
			Numero:      recibo.Numero,
			ProveedorID: recibo.ProveedorID,
			RefID:       refID.String(),
			Compras:     len(registradas),
			ConvertedAt: time.Now(),
		}
		if err := s.integration.HandleReciboConvertido(ctx, evt); err != nil {
			return nil, err
		}
	}
	return registradas, nil
}
