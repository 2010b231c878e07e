package compras

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// RepositoryPort describes persistence used by Service.
type RepositoryPort interface {
	InsertCompras(ctx context.Context, entradas []Compra) ([]Compra, error)
	GetCompra(ctx context.Context, id int64) (Compra, error)
	ListCompras(ctx context.Context, filtro Filtro) ([]Compra, error)
}

// Filtro narrows ledger queries.
type Filtro struct {
	ProveedorID    int64
	ReciboOrigenID int64
	Buscar         string
}

// Service owns the purchase ledger.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a compras service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RegistrarCompras validates and inserts ledger rows as a batch.
func (s *Service) RegistrarCompras(ctx context.Context, entradas []CompraInput) ([]Compra, error) {
	if len(entradas) == 0 {
		return nil, fmt.Errorf("%w: sin entradas", ErrValidation)
	}
	filas := make([]Compra, len(entradas))
	for i, entrada := range entradas {
		if strings.TrimSpace(entrada.Item) == "" {
			return nil, fmt.Errorf("%w: item requerido", ErrValidation)
		}
		if entrada.Cantidad <= 0 {
			return nil, fmt.Errorf("%w: cantidad debe ser positiva", ErrValidation)
		}
		if entrada.PrecioUnitario < 0 {
			return nil, fmt.Errorf("%w: precio unitario negativo", ErrValidation)
		}
		if entrada.ProveedorID <= 0 {
			return nil, fmt.Errorf("%w: proveedor requerido", ErrValidation)
		}
		if strings.TrimSpace(entrada.MetodoPago) == "" {
			return nil, fmt.Errorf("%w: metodo de pago requerido", ErrValidation)
		}
		fila := Compra{
			Item:           strings.TrimSpace(entrada.Item),
			Cantidad:       entrada.Cantidad,
			PrecioUnitario: entrada.PrecioUnitario,
			Total:          math.Round(float64(entrada.Cantidad)*entrada.PrecioUnitario*100) / 100,
			ProveedorID:    entrada.ProveedorID,
			MetodoPago:     entrada.MetodoPago,
			Tracking:       entrada.Tracking,
			Transportista:  entrada.Transportista,
			PrecioOrigen:   entrada.PrecioOrigen,
		}
		if entrada.ReciboOrigenID != 0 {
			origen := entrada.ReciboOrigenID
			fila.ReciboOrigenID = &origen
		}
		filas[i] = fila
	}
	return s.repo.InsertCompras(ctx, filas)
}

// GetCompra fetches a single ledger row.
func (s *Service) GetCompra(ctx context.Context, id int64) (Compra, error) {
	if id <= 0 {
		return Compra{}, fmt.Errorf("%w: id invalido", ErrValidation)
	}
	return s.repo.GetCompra(ctx, id)
}

// ListCompras returns ledger rows, newest first.
func (s *Service) ListCompras(ctx context.Context, filtro Filtro) ([]Compra, error) {
	return s.repo.ListCompras(ctx, filtro)
}
