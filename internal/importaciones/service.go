package importaciones

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRecibo(ctx context.Context, id int64) (ReciboImportacion, error)
	ListRecibos(ctx context.Context, filtro FiltroRecibos) ([]ReciboImportacion, error)
}

// TxRepository exposes write operations inside a transaction.
type TxRepository interface {
	ProximoNumero(ctx context.Context, anio int) (int, error)
	CreateRecibo(ctx context.Context, recibo ReciboImportacion) (int64, error)
	UpdateHeader(ctx context.Context, id int64, cambios HeaderUpdate) error
	UpdateEstado(ctx context.Context, id int64, estado EstadoRecibo) error
	SetFechaDepositoUSA(ctx context.Context, id int64, fecha time.Time) error
	SetRecepcion(ctx context.Context, id int64, datos DatosRecepcion) error
	DeleteRecibo(ctx context.Context, id int64) (bool, error)
	InsertItem(ctx context.Context, item ItemImportacion) (int64, error)
	UpdateItem(ctx context.Context, item ItemImportacion) error
	DeleteItem(ctx context.Context, id int64) error
	SetAsignacionItem(ctx context.Context, itemID int64, pesoReal, costoUnitario, costoFinal float64) error
}

// FiltroRecibos narrows list queries.
type FiltroRecibos struct {
	Estado      EstadoRecibo
	ProveedorID int64
	Buscar      string
}

// HeaderUpdate carries a partial update of receipt header fields. Nil
// pointers leave the column untouched.
type HeaderUpdate struct {
	ProveedorID   *int64
	ClienteID     *int64
	FechaCompra   *time.Time
	MetodoPago    *MetodoPago
	Tracking      *string
	Transportista *string
	FechaEstimada *time.Time
	Notas         *string
}

func (u HeaderUpdate) vacio() bool {
	return u.ProveedorID == nil && u.ClienteID == nil && u.FechaCompra == nil &&
		u.MetodoPago == nil && u.Tracking == nil && u.Transportista == nil &&
		u.FechaEstimada == nil && u.Notas == nil
}

// AuditPort records money-relevant operations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort claims and releases operation keys.
// *shared.IdempotencyStore satisfies it.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service orchestrates the import receipt engine.
type Service struct {
	repo        RepositoryPort
	compras     CompraLedgerPort
	audit       AuditPort
	idempotency IdempotencyPort
	integration IntegrationHandler
}

// NewService constructs the importaciones service.
func NewService(repo RepositoryPort, compras CompraLedgerPort, audit AuditPort, idem IdempotencyPort, integration IntegrationHandler) *Service {
	return &Service{repo: repo, compras: compras, audit: audit, idempotency: idem, integration: integration}
}

// CrearReciboInput describes the creation payload.
type CrearReciboInput struct {
	ProveedorID   int64
	ClienteID     *int64
	FechaCompra   time.Time
	MetodoPago    MetodoPago
	Tracking      *string
	Transportista *string
	FechaEstimada *time.Time
	Notas         *string
	Items         []ItemInput
}

// ItemInput describes one line item at creation or edit time.
type ItemInput struct {
	Descripcion    string
	Cantidad       int
	PrecioUnitario float64
	PesoEstimado   float64
	Link           *string
	Notas          *string
}

func (in ItemInput) validar() error {
	if strings.TrimSpace(in.Descripcion) == "" {
		return fmt.Errorf("%w: descripcion requerida", ErrValidation)
	}
	if in.Cantidad <= 0 {
		return fmt.Errorf("%w: cantidad debe ser positiva", ErrValidation)
	}
	if in.PrecioUnitario < 0 {
		return fmt.Errorf("%w: precio unitario negativo", ErrValidation)
	}
	if in.PesoEstimado < 0 {
		return fmt.Errorf("%w: peso estimado negativo", ErrValidation)
	}
	return nil
}

// CrearRecibo validates and persists a new receipt with its items in a
// single transaction. The receipt number is YYYY-NN, scoped by the year of
// the purchase date and serialized through an atomic counter row.
func (s *Service) CrearRecibo(ctx context.Context, input CrearReciboInput) (ReciboImportacion, error) {
	if input.ProveedorID <= 0 {
		return ReciboImportacion{}, fmt.Errorf("%w: proveedor requerido", ErrValidation)
	}
	if !input.MetodoPago.IsValid() {
		return ReciboImportacion{}, fmt.Errorf("%w: metodo de pago invalido", ErrValidation)
	}
	if input.FechaCompra.IsZero() {
		return ReciboImportacion{}, fmt.Errorf("%w: fecha de compra requerida", ErrValidation)
	}
	if len(input.Items) == 0 {
		return ReciboImportacion{}, fmt.Errorf("%w: minimo 1 item", ErrValidation)
	}
	for _, item := range input.Items {
		if err := item.validar(); err != nil {
			return ReciboImportacion{}, err
		}
	}

	recibo := ReciboImportacion{
		ProveedorID:   input.ProveedorID,
		ClienteID:     input.ClienteID,
		FechaCompra:   input.FechaCompra,
		MetodoPago:    input.MetodoPago,
		Estado:        EstadoEnTransitoUSA,
		Tracking:      input.Tracking,
		Transportista: input.Transportista,
		FechaEstimada: input.FechaEstimada,
		Notas:         input.Notas,
	}

	var reciboID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		anio := input.FechaCompra.Year()
		secuencia, err := tx.ProximoNumero(ctx, anio)
		if err != nil {
			return err
		}
		recibo.Numero = fmt.Sprintf("%d-%02d", anio, secuencia)

		reciboID, err = tx.CreateRecibo(ctx, recibo)
		if err != nil {
			return err
		}
		for _, item := range input.Items {
			linea := ItemImportacion{
				ReciboID:       reciboID,
				Descripcion:    strings.TrimSpace(item.Descripcion),
				Cantidad:       item.Cantidad,
				PrecioUnitario: item.PrecioUnitario,
				PrecioTotal:    redondear(float64(item.Cantidad) * item.PrecioUnitario),
				PesoEstimado:   item.PesoEstimado,
				Link:           item.Link,
				Notas:          item.Notas,
			}
			if _, err := tx.InsertItem(ctx, linea); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ReciboImportacion{}, err
	}

	creado, err := s.repo.GetRecibo(ctx, reciboID)
	if err != nil {
		return ReciboImportacion{}, err
	}
	s.recordAudit(ctx, "RECIBO_CREATE", reciboID, map[string]any{"numero": creado.Numero})
	return creado, nil
}

// GetRecibo returns a receipt hydrated with supplier, customer and items.
func (s *Service) GetRecibo(ctx context.Context, id int64) (ReciboImportacion, error) {
	return s.repo.GetRecibo(ctx, id)
}

// ListRecibos returns receipts ordered by purchase date descending.
func (s *Service) ListRecibos(ctx context.Context, filtro FiltroRecibos) ([]ReciboImportacion, error) {
	if filtro.Estado != "" && !filtro.Estado.IsValid() {
		return nil, fmt.Errorf("%w: estado desconocido %q", ErrValidation, filtro.Estado)
	}
	return s.repo.ListRecibos(ctx, filtro)
}

// ActualizarRecibo applies a partial header update and returns the
// refreshed receipt. Money-relevant corrections on a finalized receipt go
// through EditarRecibo instead.
func (s *Service) ActualizarRecibo(ctx context.Context, id int64, cambios HeaderUpdate) (ReciboImportacion, error) {
	if cambios.vacio() {
		return s.repo.GetRecibo(ctx, id)
	}
	if cambios.MetodoPago != nil && !cambios.MetodoPago.IsValid() {
		return ReciboImportacion{}, fmt.Errorf("%w: metodo de pago invalido", ErrValidation)
	}
	if cambios.ProveedorID != nil && *cambios.ProveedorID <= 0 {
		return ReciboImportacion{}, fmt.Errorf("%w: proveedor invalido", ErrValidation)
	}
	if _, err := s.repo.GetRecibo(ctx, id); err != nil {
		return ReciboImportacion{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateHeader(ctx, id, cambios)
	})
	if err != nil {
		return ReciboImportacion{}, err
	}
	return s.repo.GetRecibo(ctx, id)
}

// EliminarRecibo removes a receipt; line items go with it by cascade.
func (s *Service) EliminarRecibo(ctx context.Context, id int64) error {
	var numero string
	if recibo, err := s.repo.GetRecibo(ctx, id); err == nil {
		numero = recibo.Numero
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		borrado, err := tx.DeleteRecibo(ctx, id)
		if err != nil {
			return err
		}
		if !borrado {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "RECIBO_DELETE", id, map[string]any{"numero": numero})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, reciboID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "importaciones",
		EntityID: fmt.Sprintf("%d", reciboID),
		Meta:     meta,
	})
}
