package importaciones

import (
	"errors"
	"fmt"
	"time"
)

// EstadoRecibo represents the lifecycle state of an import receipt.
// The sequence is strictly linear: a receipt moves one step at a time,
// forward or backward, never skipping.
type EstadoRecibo string

const (
	EstadoEnTransitoUSA EstadoRecibo = "EN_TRANSITO_USA"
	EstadoEnDepositoUSA EstadoRecibo = "EN_DEPOSITO_USA"
	EstadoEnVuelo       EstadoRecibo = "EN_VUELO_INTERNACIONAL"
	EstadoEnDepositoARG EstadoRecibo = "EN_DEPOSITO_ARG"
	EstadoRecepcionado  EstadoRecibo = "RECEPCIONADO"
)

// secuenciaEstados is the single source of truth for legal transitions.
var secuenciaEstados = []EstadoRecibo{
	EstadoEnTransitoUSA,
	EstadoEnDepositoUSA,
	EstadoEnVuelo,
	EstadoEnDepositoARG,
	EstadoRecepcionado,
}

// IsValid reports whether the state belongs to the closed set.
func (e EstadoRecibo) IsValid() bool {
	return e.index() >= 0
}

// Terminal reports whether the state is the last in the sequence.
func (e EstadoRecibo) Terminal() bool {
	return e == EstadoRecepcionado
}

// Siguiente returns the next state in the sequence.
func (e EstadoRecibo) Siguiente() (EstadoRecibo, bool) {
	i := e.index()
	if i < 0 || i >= len(secuenciaEstados)-1 {
		return "", false
	}
	return secuenciaEstados[i+1], true
}

// Anterior returns the previous state in the sequence.
func (e EstadoRecibo) Anterior() (EstadoRecibo, bool) {
	i := e.index()
	if i <= 0 {
		return "", false
	}
	return secuenciaEstados[i-1], true
}

func (e EstadoRecibo) index() int {
	for i, s := range secuenciaEstados {
		if s == e {
			return i
		}
	}
	return -1
}

// MetodoPago enumerates accepted payment methods for a purchase.
type MetodoPago string

const (
	PagoEfectivo      MetodoPago = "EFECTIVO"
	PagoTransferencia MetodoPago = "TRANSFERENCIA"
	PagoTarjeta       MetodoPago = "TARJETA"
	PagoCripto        MetodoPago = "CRIPTO"
	PagoOtro          MetodoPago = "OTRO"
)

// IsValid checks membership in the payment method enum.
func (m MetodoPago) IsValid() bool {
	switch m {
	case PagoEfectivo, PagoTransferencia, PagoTarjeta, PagoCripto, PagoOtro:
		return true
	default:
		return false
	}
}

// ReciboImportacion is one import shipment from a single supplier.
type ReciboImportacion struct {
	ID          int64        `json:"id"`
	Numero      string       `json:"numero"`
	ProveedorID int64        `json:"proveedor_id"`
	ClienteID   *int64       `json:"cliente_id,omitempty"`
	FechaCompra time.Time    `json:"fecha_compra"`
	MetodoPago  MetodoPago   `json:"metodo_pago"`
	Estado      EstadoRecibo `json:"estado"`

	Tracking      *string    `json:"tracking,omitempty"`
	Transportista *string    `json:"transportista,omitempty"`
	FechaEstimada *time.Time `json:"fecha_estimada,omitempty"`
	Notas         *string    `json:"notas,omitempty"`

	// FechaDepositoUSA is stamped by the EN_TRANSITO_USA -> EN_DEPOSITO_USA
	// transition.
	FechaDepositoUSA *time.Time `json:"fecha_deposito_usa,omitempty"`

	// Recepcion is nil until the receipt reaches RECEPCIONADO.
	Recepcion *DatosRecepcion `json:"recepcion,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []ItemImportacion `json:"items,omitempty"`

	// Hydrated display fields.
	ProveedorNombre string  `json:"proveedor_nombre,omitempty"`
	ClienteNombre   *string `json:"cliente_nombre,omitempty"`
}

// DatosRecepcion holds the fields captured when the shipment is physically
// received in the destination country.
type DatosRecepcion struct {
	FechaRecepcion       time.Time `json:"fecha_recepcion"`
	PesoTotalConEmbalaje float64   `json:"peso_total_con_embalaje"`
	PesoTotalSinEmbalaje float64   `json:"peso_total_sin_embalaje"`
	PrecioPorKilo        float64   `json:"precio_por_kilo"`
	PagoCourier          float64   `json:"pago_courier"`
	CostoPicking         float64   `json:"costo_picking"`
	// TotalAdicionales = PagoCourier + CostoPicking, the pool distributed
	// across line items by real weight.
	TotalAdicionales float64 `json:"total_adicionales"`
}

// ItemImportacion is one purchased product line within a receipt.
type ItemImportacion struct {
	ID             int64   `json:"id"`
	ReciboID       int64   `json:"recibo_id"`
	Descripcion    string  `json:"descripcion"`
	Cantidad       int     `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
	PrecioTotal    float64 `json:"precio_total"`
	PesoEstimado   float64 `json:"peso_estimado"`
	Link           *string `json:"link,omitempty"`
	Notas          *string `json:"notas,omitempty"`

	// Reception-only fields, nil until allocation runs.
	PesoReal                  *float64 `json:"peso_real,omitempty"`
	CostosAdicionalesUnitario *float64 `json:"costos_adicionales_unitario,omitempty"`
	CostoFinalUnitario        *float64 `json:"costo_final_unitario,omitempty"`
}

var (
	// ErrValidation indicates invalid caller input, detected before any
	// persistence attempt.
	ErrValidation = errors.New("importaciones: datos invalidos")
	// ErrNotFound indicates the receipt or item no longer exists.
	ErrNotFound = errors.New("importaciones: no encontrado")
	// ErrInvalidState occurs when an action violates the receipt lifecycle.
	ErrInvalidState = errors.New("importaciones: transicion de estado invalida")
	// ErrPersistence wraps rejections from the underlying store.
	ErrPersistence = errors.New("importaciones: error de persistencia")
)

// TransitionError names the current and attempted-target states of a
// rejected transition. It unwraps to ErrInvalidState.
type TransitionError struct {
	Desde EstadoRecibo
	Hasta EstadoRecibo
}

func (e *TransitionError) Error() string {
	if e.Hasta == "" {
		return fmt.Sprintf("importaciones: no hay transicion posible desde %s", e.Desde)
	}
	return fmt.Sprintf("importaciones: transicion invalida de %s a %s", e.Desde, e.Hasta)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidState
}
