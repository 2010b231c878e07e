package proveedores

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/shared"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/platform/cache"
)

type memoryRepo struct {
	proveedores  map[int64]Proveedor
	nextID       int64
	optionsCalls int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{proveedores: make(map[int64]Proveedor), nextID: 1}
}

func (r *memoryRepo) List(_ context.Context, _ shared.ListFilters) ([]Proveedor, int, error) {
	listado := make([]Proveedor, 0, len(r.proveedores))
	for _, p := range r.proveedores {
		listado = append(listado, p)
	}
	return listado, len(listado), nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (Proveedor, error) {
	p, ok := r.proveedores[id]
	if !ok {
		return Proveedor{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) Options(_ context.Context) ([]Opcion, error) {
	r.optionsCalls++
	opciones := make([]Opcion, 0, len(r.proveedores))
	for _, p := range r.proveedores {
		opciones = append(opciones, Opcion{ID: p.ID, Nombre: p.Nombre})
	}
	return opciones, nil
}

func (r *memoryRepo) Create(_ context.Context, p Proveedor) (Proveedor, error) {
	p.ID = r.nextID
	r.nextID++
	r.proveedores[p.ID] = p
	return p, nil
}

func (r *memoryRepo) Update(_ context.Context, id int64, p Proveedor) error {
	if _, ok := r.proveedores[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	r.proveedores[id] = p
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.proveedores[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.proveedores, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMemoryRepo()
	return NewService(repo, cache.NewOptionsCache(client, time.Minute)), repo
}

func TestCreateRechazaNombreVacio(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), Proveedor{Nombre: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetRechazaIDInvalido(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestOptionsUsaElCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Proveedor{Nombre: "BH Photo"})
	require.NoError(t, err)

	primera, err := svc.Options(ctx)
	require.NoError(t, err)
	require.Len(t, primera, 1)
	require.Equal(t, 1, repo.optionsCalls)

	segunda, err := svc.Options(ctx)
	require.NoError(t, err)
	require.Equal(t, primera, segunda)
	require.Equal(t, 1, repo.optionsCalls)
}

func TestEscriturasInvalidanElCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	creado, err := svc.Create(ctx, Proveedor{Nombre: "BH Photo"})
	require.NoError(t, err)

	_, err = svc.Options(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.optionsCalls)

	require.NoError(t, svc.Update(ctx, creado.ID, Proveedor{Nombre: "B&H Photo"}))

	opciones, err := svc.Options(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.optionsCalls)
	require.Equal(t, "B&H Photo", opciones[0].Nombre)

	require.NoError(t, svc.Delete(ctx, creado.ID))

	opciones, err = svc.Options(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, repo.optionsCalls)
	require.Empty(t, opciones)
}
