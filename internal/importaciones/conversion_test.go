package importaciones

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/compras"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/shared"
)

type stubLedger struct {
	registradas []compras.CompraInput
	fallar      bool
}

func (s *stubLedger) RegistrarCompras(ctx context.Context, entradas []compras.CompraInput) ([]compras.Compra, error) {
	if s.fallar {
		return nil, errors.New("ledger caido")
	}
	s.registradas = append(s.registradas, entradas...)
	resultado := make([]compras.Compra, len(entradas))
	for i, e := range entradas {
		resultado[i] = compras.Compra{
			ID:             int64(i + 1),
			Item:           e.Item,
			Cantidad:       e.Cantidad,
			PrecioUnitario: e.PrecioUnitario,
			ProveedorID:    e.ProveedorID,
			PrecioOrigen:   e.PrecioOrigen,
		}
	}
	return resultado, nil
}

type memIdem struct {
	claves map[string]bool
}

func newMemIdem() *memIdem {
	return &memIdem{claves: make(map[string]bool)}
}

func (m *memIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.claves[key] {
		return shared.ErrIdempotencyConflict
	}
	m.claves[key] = true
	return nil
}

func (m *memIdem) Delete(ctx context.Context, key string) error {
	delete(m.claves, key)
	return nil
}

func newConversionService() (*Service, *stubLedger, *memIdem) {
	repo := newMemoryRepo()
	ledger := &stubLedger{}
	idem := newMemIdem()
	svc := NewService(repo, ledger, &stubAudit{}, idem, nil)
	return svc, ledger, idem
}

func reciboListoParaConvertir(t *testing.T, svc *Service) ReciboImportacion {
	t.Helper()
	ctx := context.Background()
	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)
	avanzarHasta(t, svc, recibo.ID, EstadoEnDepositoARG)
	recibo, err = svc.Recepcionar(ctx, recibo.ID, RecepcionInput{
		FechaRecepcion:       time.Now(),
		PesoTotalSinEmbalaje: 2.5,
		PrecioPorKilo:        10,
		PagoCourier:          30,
	})
	require.NoError(t, err)
	return recibo
}

func TestConvertirGeneraUnaCompraPorItem(t *testing.T) {
	svc, ledger, _ := newConversionService()
	ctx := context.Background()

	recibo := reciboListoParaConvertir(t, svc)

	generadas, err := svc.ConvertirACompra(ctx, recibo.ID, nil)
	require.NoError(t, err)
	require.Len(t, generadas, 2)
	require.Len(t, ledger.registradas, 2)

	primera := ledger.registradas[0]
	require.Equal(t, "MacBook Pro 14", primera.Item)
	require.Equal(t, 2, primera.Cantidad)
	require.InDelta(t, *recibo.Items[0].CostoFinalUnitario, primera.PrecioUnitario, 0.001)
	require.Equal(t, recibo.ProveedorID, primera.ProveedorID)
	require.Equal(t, recibo.ID, primera.ReciboOrigenID)
	require.Equal(t, PrecioOrigenAsignado, primera.PrecioOrigen)

	// The receipt stays untouched as the audit trail.
	despues, err := svc.GetRecibo(ctx, recibo.ID)
	require.NoError(t, err)
	require.Equal(t, EstadoRecepcionado, despues.Estado)
	require.Len(t, despues.Items, 2)
}

func TestConvertirConPrecioEditado(t *testing.T) {
	svc, ledger, _ := newConversionService()
	ctx := context.Background()

	recibo := reciboListoParaConvertir(t, svc)

	_, err := svc.ConvertirACompra(ctx, recibo.ID, map[int64]float64{
		recibo.Items[1].ID: 99.9,
	})
	require.NoError(t, err)

	require.Equal(t, PrecioOrigenAsignado, ledger.registradas[0].PrecioOrigen)
	require.Equal(t, PrecioOrigenEditado, ledger.registradas[1].PrecioOrigen)
	require.InDelta(t, 99.9, ledger.registradas[1].PrecioUnitario, 0.001)
}

func TestConvertirSoloDesdeRecepcionado(t *testing.T) {
	svc, _, _ := newConversionService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)

	_, err = svc.ConvertirACompra(ctx, recibo.ID, nil)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestConvertirEsIdempotente(t *testing.T) {
	svc, ledger, _ := newConversionService()
	ctx := context.Background()

	recibo := reciboListoParaConvertir(t, svc)

	_, err := svc.ConvertirACompra(ctx, recibo.ID, nil)
	require.NoError(t, err)

	_, err = svc.ConvertirACompra(ctx, recibo.ID, nil)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, ledger.registradas, 2)
}

func TestConvertirLiberaLaClaveSiElLedgerFalla(t *testing.T) {
	svc, ledger, idem := newConversionService()
	ctx := context.Background()

	recibo := reciboListoParaConvertir(t, svc)

	ledger.fallar = true
	_, err := svc.ConvertirACompra(ctx, recibo.ID, nil)
	require.Error(t, err)
	require.Empty(t, idem.claves)

	ledger.fallar = false
	generadas, err := svc.ConvertirACompra(ctx, recibo.ID, nil)
	require.NoError(t, err)
	require.Len(t, generadas, 2)
}

func TestConvertirPrecioEditadoNegativo(t *testing.T) {
	svc, _, _ := newConversionService()
	ctx := context.Background()

	recibo := reciboListoParaConvertir(t, svc)

	_, err := svc.ConvertirACompra(ctx, recibo.ID, map[int64]float64{
		recibo.Items[0].ID: -1,
	})
	require.ErrorIs(t, err, ErrValidation)
}
