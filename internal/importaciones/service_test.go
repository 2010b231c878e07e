package importaciones

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/shared"
)

type memoryRepo struct {
	recibos    map[int64]ReciboImportacion
	items      map[int64][]ItemImportacion
	contadores map[int]int
	nextID     int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		recibos:    make(map[int64]ReciboImportacion),
		items:      make(map[int64][]ItemImportacion),
		contadores: make(map[int]int),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetRecibo(ctx context.Context, id int64) (ReciboImportacion, error) {
	recibo, ok := r.recibos[id]
	if !ok {
		return ReciboImportacion{}, ErrNotFound
	}
	items := append([]ItemImportacion(nil), r.items[id]...)
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	recibo.Items = items
	return recibo, nil
}

func (r *memoryRepo) ListRecibos(ctx context.Context, filtro FiltroRecibos) ([]ReciboImportacion, error) {
	var lista []ReciboImportacion
	for id := range r.recibos {
		recibo, _ := r.GetRecibo(ctx, id)
		if filtro.Estado != "" && recibo.Estado != filtro.Estado {
			continue
		}
		if filtro.ProveedorID > 0 && recibo.ProveedorID != filtro.ProveedorID {
			continue
		}
		lista = append(lista, recibo)
	}
	sort.Slice(lista, func(i, j int) bool {
		if lista[i].FechaCompra.Equal(lista[j].FechaCompra) {
			return lista[i].ID > lista[j].ID
		}
		return lista[i].FechaCompra.After(lista[j].FechaCompra)
	})
	return lista, nil
}

func (tx *memoryTx) siguienteID() int64 {
	tx.repo.nextID++
	return tx.repo.nextID
}

func (tx *memoryTx) ProximoNumero(ctx context.Context, anio int) (int, error) {
	tx.repo.contadores[anio]++
	return tx.repo.contadores[anio], nil
}

func (tx *memoryTx) CreateRecibo(ctx context.Context, recibo ReciboImportacion) (int64, error) {
	id := tx.siguienteID()
	recibo.ID = id
	recibo.CreatedAt = time.Now()
	recibo.UpdatedAt = recibo.CreatedAt
	tx.repo.recibos[id] = recibo
	return id, nil
}

func (tx *memoryTx) UpdateHeader(ctx context.Context, id int64, cambios HeaderUpdate) error {
	recibo := tx.repo.recibos[id]
	if cambios.ProveedorID != nil {
		recibo.ProveedorID = *cambios.ProveedorID
	}
	if cambios.ClienteID != nil {
		recibo.ClienteID = cambios.ClienteID
	}
	if cambios.FechaCompra != nil {
		recibo.FechaCompra = *cambios.FechaCompra
	}
	if cambios.MetodoPago != nil {
		recibo.MetodoPago = *cambios.MetodoPago
	}
	if cambios.Tracking != nil {
		recibo.Tracking = cambios.Tracking
	}
	if cambios.Transportista != nil {
		recibo.Transportista = cambios.Transportista
	}
	if cambios.FechaEstimada != nil {
		recibo.FechaEstimada = cambios.FechaEstimada
	}
	if cambios.Notas != nil {
		recibo.Notas = cambios.Notas
	}
	tx.repo.recibos[id] = recibo
	return nil
}

func (tx *memoryTx) UpdateEstado(ctx context.Context, id int64, estado EstadoRecibo) error {
	recibo := tx.repo.recibos[id]
	recibo.Estado = estado
	tx.repo.recibos[id] = recibo
	return nil
}

func (tx *memoryTx) SetFechaDepositoUSA(ctx context.Context, id int64, fecha time.Time) error {
	recibo := tx.repo.recibos[id]
	recibo.FechaDepositoUSA = &fecha
	tx.repo.recibos[id] = recibo
	return nil
}

func (tx *memoryTx) SetRecepcion(ctx context.Context, id int64, datos DatosRecepcion) error {
	recibo := tx.repo.recibos[id]
	recibo.Recepcion = &datos
	tx.repo.recibos[id] = recibo
	return nil
}

func (tx *memoryTx) DeleteRecibo(ctx context.Context, id int64) (bool, error) {
	if _, ok := tx.repo.recibos[id]; !ok {
		return false, nil
	}
	delete(tx.repo.recibos, id)
	delete(tx.repo.items, id)
	return true, nil
}

func (tx *memoryTx) InsertItem(ctx context.Context, item ItemImportacion) (int64, error) {
	item.ID = tx.siguienteID()
	tx.repo.items[item.ReciboID] = append(tx.repo.items[item.ReciboID], item)
	return item.ID, nil
}

func (tx *memoryTx) UpdateItem(ctx context.Context, item ItemImportacion) error {
	items := tx.repo.items[item.ReciboID]
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			return nil
		}
	}
	return ErrNotFound
}

func (tx *memoryTx) DeleteItem(ctx context.Context, id int64) error {
	for reciboID, items := range tx.repo.items {
		for i := range items {
			if items[i].ID == id {
				tx.repo.items[reciboID] = append(items[:i], items[i+1:]...)
				return nil
			}
		}
	}
	return ErrNotFound
}

func (tx *memoryTx) SetAsignacionItem(ctx context.Context, itemID int64, pesoReal, costoUnitario, costoFinal float64) error {
	for reciboID, items := range tx.repo.items {
		for i := range items {
			if items[i].ID == itemID {
				items[i].PesoReal = &pesoReal
				items[i].CostosAdicionalesUnitario = &costoUnitario
				items[i].CostoFinalUnitario = &costoFinal
				tx.repo.items[reciboID] = items
				return nil
			}
		}
	}
	return ErrNotFound
}

type stubAudit struct {
	acciones []string
}

func (a *stubAudit) Record(ctx context.Context, entry shared.AuditLog) error {
	a.acciones = append(a.acciones, entry.Action)
	return nil
}

func newTestService() (*Service, *memoryRepo, *stubAudit) {
	repo := newMemoryRepo()
	audit := &stubAudit{}
	return NewService(repo, nil, audit, nil, nil), repo, audit
}

func inputBase(anio int) CrearReciboInput {
	return CrearReciboInput{
		ProveedorID: 1,
		FechaCompra: time.Date(anio, time.March, 10, 0, 0, 0, 0, time.UTC),
		MetodoPago:  PagoTransferencia,
		Items: []ItemInput{
			{Descripcion: "MacBook Pro 14", Cantidad: 2, PrecioUnitario: 100, PesoEstimado: 1.0},
			{Descripcion: "AirPods Pro", Cantidad: 1, PrecioUnitario: 50, PesoEstimado: 0.5},
		},
	}
}

func TestCrearReciboNumeracionPorAnio(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("2025-%02d", i), recibo.Numero)
		require.Equal(t, EstadoEnTransitoUSA, recibo.Estado)
	}

	// A new year restarts the sequence.
	recibo, err := svc.CrearRecibo(ctx, inputBase(2026))
	require.NoError(t, err)
	require.Equal(t, "2026-01", recibo.Numero)
}

func TestCrearReciboValidaciones(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	input := inputBase(2025)
	input.Items = nil
	_, err := svc.CrearRecibo(ctx, input)
	require.ErrorIs(t, err, ErrValidation)

	input = inputBase(2025)
	input.ProveedorID = 0
	_, err = svc.CrearRecibo(ctx, input)
	require.ErrorIs(t, err, ErrValidation)

	input = inputBase(2025)
	input.MetodoPago = "CHEQUE"
	_, err = svc.CrearRecibo(ctx, input)
	require.ErrorIs(t, err, ErrValidation)

	input = inputBase(2025)
	input.Items[0].Cantidad = 0
	_, err = svc.CrearRecibo(ctx, input)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCrearReciboCalculaPrecioTotal(t *testing.T) {
	svc, _, _ := newTestService()

	recibo, err := svc.CrearRecibo(context.Background(), inputBase(2025))
	require.NoError(t, err)
	require.Len(t, recibo.Items, 2)
	require.InDelta(t, 200.0, recibo.Items[0].PrecioTotal, 0.001)
	require.InDelta(t, 50.0, recibo.Items[1].PrecioTotal, 0.001)
}

func TestAvanzarRecorreTodaLaSecuencia(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)

	esperados := []EstadoRecibo{
		EstadoEnDepositoUSA,
		EstadoEnVuelo,
		EstadoEnDepositoARG,
		EstadoRecepcionado,
	}
	for _, esperado := range esperados {
		recibo, err = svc.Avanzar(ctx, recibo.ID)
		require.NoError(t, err)
		require.Equal(t, esperado, recibo.Estado)
	}

	// Terminal state rejects a fifth advance.
	_, err = svc.Avanzar(ctx, recibo.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAvanzarEstampaFechaDepositoUSA(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)
	require.Nil(t, recibo.FechaDepositoUSA)

	recibo, err = svc.Avanzar(ctx, recibo.ID)
	require.NoError(t, err)
	require.NotNil(t, recibo.FechaDepositoUSA)
}

func TestRevertirDesdeElEstadoInicialFalla(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)

	_, err = svc.Revertir(ctx, recibo.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestRevertirRetrocedeUnPaso(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)
	recibo, err = svc.Avanzar(ctx, recibo.ID)
	require.NoError(t, err)
	require.Equal(t, EstadoEnDepositoUSA, recibo.Estado)

	recibo, err = svc.Revertir(ctx, recibo.ID)
	require.NoError(t, err)
	require.Equal(t, EstadoEnTransitoUSA, recibo.Estado)
}

func TestMarcarArriboDepositoUSA(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)

	fecha := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	recibo, err = svc.MarcarArriboDepositoUSA(ctx, recibo.ID, fecha)
	require.NoError(t, err)
	require.Equal(t, EstadoEnDepositoUSA, recibo.Estado)
	require.NotNil(t, recibo.FechaDepositoUSA)
	require.True(t, recibo.FechaDepositoUSA.Equal(fecha))

	// Only valid from the initial state.
	_, err = svc.MarcarArriboDepositoUSA(ctx, recibo.ID, fecha)
	require.ErrorIs(t, err, ErrInvalidState)
}

func avanzarHasta(t *testing.T, svc *Service, id int64, destino EstadoRecibo) ReciboImportacion {
	t.Helper()
	ctx := context.Background()
	recibo, err := svc.GetRecibo(ctx, id)
	require.NoError(t, err)
	for recibo.Estado != destino {
		recibo, err = svc.Avanzar(ctx, id)
		require.NoError(t, err)
	}
	return recibo
}

func TestRecepcionarAsignaCostosYFinaliza(t *testing.T) {
	svc, _, audit := newTestService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)
	avanzarHasta(t, svc, recibo.ID, EstadoEnDepositoARG)

	recibo, err = svc.Recepcionar(ctx, recibo.ID, RecepcionInput{
		FechaRecepcion:       time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC),
		PesoTotalConEmbalaje: 2.8,
		PesoTotalSinEmbalaje: 2.5,
		PrecioPorKilo:        10,
		PagoCourier:          25,
		CostoPicking:         5,
	})
	require.NoError(t, err)
	require.Equal(t, EstadoRecepcionado, recibo.Estado)
	require.NotNil(t, recibo.Recepcion)
	require.InDelta(t, 30.0, recibo.Recepcion.TotalAdicionales, 0.001)

	// 2 units at 1.0kg against 1 unit at 0.5kg splits 30 as 24 / 6.
	require.NotNil(t, recibo.Items[0].CostoFinalUnitario)
	require.InDelta(t, 112.0, *recibo.Items[0].CostoFinalUnitario, 0.001)
	require.NotNil(t, recibo.Items[1].CostoFinalUnitario)
	require.InDelta(t, 56.0, *recibo.Items[1].CostoFinalUnitario, 0.001)

	require.Contains(t, audit.acciones, "RECIBO_RECEPCION")

	// Already finalized.
	_, err = svc.Recepcionar(ctx, recibo.ID, RecepcionInput{
		FechaRecepcion:       time.Now(),
		PesoTotalSinEmbalaje: 2.5,
		PrecioPorKilo:        10,
	})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestRecepcionarConPesosReales(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)
	avanzarHasta(t, svc, recibo.ID, EstadoEnDepositoARG)

	// Item 2 measured heavier than estimated; item 1 keeps its estimate.
	recibo, err = svc.Recepcionar(ctx, recibo.ID, RecepcionInput{
		FechaRecepcion:       time.Now(),
		PesoTotalSinEmbalaje: 4.0,
		PrecioPorKilo:        10,
		PagoCourier:          40,
		PesosReales:          map[int64]float64{recibo.Items[1].ID: 2.0},
	})
	require.NoError(t, err)

	// Weights: 2x1.0 = 2.0 and 1x2.0 = 2.0, an even split of 40.
	require.InDelta(t, 10.0, *recibo.Items[0].CostosAdicionalesUnitario, 0.001)
	require.InDelta(t, 20.0, *recibo.Items[1].CostosAdicionalesUnitario, 0.001)
	require.InDelta(t, 2.0, *recibo.Items[1].PesoReal, 0.001)
}

func TestRecepcionarSoloDesdeDepositoARG(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)

	_, err = svc.Recepcionar(ctx, recibo.ID, RecepcionInput{
		FechaRecepcion:       time.Now(),
		PesoTotalSinEmbalaje: 2.5,
		PrecioPorKilo:        10,
	})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestActualizarReciboParcial(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)

	tracking := "1Z999AA10123456784"
	actualizado, err := svc.ActualizarRecibo(ctx, recibo.ID, HeaderUpdate{Tracking: &tracking})
	require.NoError(t, err)
	require.NotNil(t, actualizado.Tracking)
	require.Equal(t, tracking, *actualizado.Tracking)
	require.Equal(t, recibo.ProveedorID, actualizado.ProveedorID)
	require.Equal(t, recibo.Numero, actualizado.Numero)
}

func TestEliminarRecibo(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	recibo, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)

	require.NoError(t, svc.EliminarRecibo(ctx, recibo.ID))
	_, err = svc.GetRecibo(ctx, recibo.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.EliminarRecibo(ctx, recibo.ID), ErrNotFound)
}

func TestGetReciboEsRepetible(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	creado, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)

	primero, err := svc.GetRecibo(ctx, creado.ID)
	require.NoError(t, err)
	segundo, err := svc.GetRecibo(ctx, creado.ID)
	require.NoError(t, err)
	require.Equal(t, primero, segundo)
}

func TestListRecibosFiltraPorEstado(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	primero, err := svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)
	_, err = svc.CrearRecibo(ctx, inputBase(2025))
	require.NoError(t, err)
	_, err = svc.Avanzar(ctx, primero.ID)
	require.NoError(t, err)

	lista, err := svc.ListRecibos(ctx, FiltroRecibos{Estado: EstadoEnDepositoUSA})
	require.NoError(t, err)
	require.Len(t, lista, 1)
	require.Equal(t, primero.ID, lista[0].ID)

	_, err = svc.ListRecibos(ctx, FiltroRecibos{Estado: "PERDIDO"})
	require.ErrorIs(t, err, ErrValidation)
}
