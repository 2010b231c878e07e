package compras

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryLedger struct {
	filas  map[int64]Compra
	nextID int64
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{filas: make(map[int64]Compra)}
}

func (r *memoryLedger) InsertCompras(ctx context.Context, entradas []Compra) ([]Compra, error) {
	resultado := make([]Compra, len(entradas))
	for i, fila := range entradas {
		r.nextID++
		fila.ID = r.nextID
		fila.CreatedAt = time.Now()
		r.filas[fila.ID] = fila
		resultado[i] = fila
	}
	return resultado, nil
}

func (r *memoryLedger) GetCompra(ctx context.Context, id int64) (Compra, error) {
	fila, ok := r.filas[id]
	if !ok {
		return Compra{}, ErrNotFound
	}
	return fila, nil
}

func (r *memoryLedger) ListCompras(ctx context.Context, filtro Filtro) ([]Compra, error) {
	var lista []Compra
	for _, fila := range r.filas {
		if filtro.ProveedorID > 0 && fila.ProveedorID != filtro.ProveedorID {
			continue
		}
		if filtro.ReciboOrigenID > 0 {
			if fila.ReciboOrigenID == nil || *fila.ReciboOrigenID != filtro.ReciboOrigenID {
				continue
			}
		}
		lista = append(lista, fila)
	}
	return lista, nil
}

func TestRegistrarComprasCalculaTotales(t *testing.T) {
	svc := NewService(newMemoryLedger())
	ctx := context.Background()

	filas, err := svc.RegistrarCompras(ctx, []CompraInput{
		{Item: "iPhone 13 usado", Cantidad: 3, PrecioUnitario: 333.33, ProveedorID: 1, MetodoPago: "EFECTIVO"},
		{Item: "Cargador", Cantidad: 1, PrecioUnitario: 10, ProveedorID: 1, MetodoPago: "EFECTIVO", ReciboOrigenID: 7},
	})
	require.NoError(t, err)
	require.Len(t, filas, 2)
	require.InDelta(t, 999.99, filas[0].Total, 0.001)
	require.Nil(t, filas[0].ReciboOrigenID)
	require.NotNil(t, filas[1].ReciboOrigenID)
	require.Equal(t, int64(7), *filas[1].ReciboOrigenID)
}

func TestRegistrarComprasValidaciones(t *testing.T) {
	svc := NewService(newMemoryLedger())
	ctx := context.Background()

	_, err := svc.RegistrarCompras(ctx, nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.RegistrarCompras(ctx, []CompraInput{
		{Item: "", Cantidad: 1, ProveedorID: 1, MetodoPago: "EFECTIVO"},
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.RegistrarCompras(ctx, []CompraInput{
		{Item: "Mouse", Cantidad: 0, ProveedorID: 1, MetodoPago: "EFECTIVO"},
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.RegistrarCompras(ctx, []CompraInput{
		{Item: "Mouse", Cantidad: 1, PrecioUnitario: -1, ProveedorID: 1, MetodoPago: "EFECTIVO"},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestListComprasPorReciboOrigen(t *testing.T) {
	svc := NewService(newMemoryLedger())
	ctx := context.Background()

	_, err := svc.RegistrarCompras(ctx, []CompraInput{
		{Item: "Notebook", Cantidad: 1, PrecioUnitario: 500, ProveedorID: 1, MetodoPago: "TRANSFERENCIA", ReciboOrigenID: 3},
		{Item: "Teclado", Cantidad: 2, PrecioUnitario: 20, ProveedorID: 2, MetodoPago: "EFECTIVO"},
	})
	require.NoError(t, err)

	lista, err := svc.ListCompras(ctx, Filtro{ReciboOrigenID: 3})
	require.NoError(t, err)
	require.Len(t, lista, 1)
	require.Equal(t, "Notebook", lista[0].Item)
}
