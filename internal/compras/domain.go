package compras

import (
	"errors"
	"time"
)

// Compra is one purchase-ledger row. Rows produced by the import
// conversion carry a reference back to the originating receipt.
type Compra struct {
	ID             int64     `json:"id"`
	Item           string    `json:"item"`
	Cantidad       int       `json:"cantidad"`
	PrecioUnitario float64   `json:"precio_unitario"`
	Total          float64   `json:"total"`
	ProveedorID    int64     `json:"proveedor_id"`
	MetodoPago     string    `json:"metodo_pago"`
	ReciboOrigenID *int64    `json:"recibo_origen_id,omitempty"`
	Tracking       *string   `json:"tracking,omitempty"`
	Transportista  *string   `json:"transportista,omitempty"`
	PrecioOrigen   string    `json:"precio_origen,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CompraInput describes a row to register.
type CompraInput struct {
	Item           string
	Cantidad       int
	PrecioUnitario float64
	ProveedorID    int64
	MetodoPago     string
	ReciboOrigenID int64
	Tracking       *string
	Transportista  *string
	PrecioOrigen   string
}

var (
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("compras: datos invalidos")
	// ErrNotFound indicates a missing ledger row.
	ErrNotFound = errors.New("compras: no encontrado")
)
