package importaciones

import (
	"context"
	"time"
)

// LineaReciboEvent describes individual line values for integration mapping.
type LineaReciboEvent struct {
	ItemID             int64
	Cantidad           int
	CostoFinalUnitario float64
}

// ReciboRecepcionadoEvent captures the terminal transition of a receipt.
type ReciboRecepcionadoEvent struct {
	ID               int64
	Numero           string
	ProveedorID      int64
	FechaRecepcion   time.Time
	TotalAdicionales float64
	Lineas           []LineaReciboEvent
}

// ReciboConvertidoEvent records a receipt being copied into the purchase
// ledger.
type ReciboConvertidoEvent struct {
	ID          int64
	Numero      string
	ProveedorID int64
	RefID       string
	Compras     int
	ConvertedAt time.Time
}

// IntegrationHandler receives importaciones domain events for downstream
// accounting and inventory integration.
type IntegrationHandler interface {
	HandleReciboRecepcionado(ctx context.Context, evt ReciboRecepcionadoEvent) error
	HandleReciboConvertido(ctx context.Context, evt ReciboConvertidoEvent) error
}
