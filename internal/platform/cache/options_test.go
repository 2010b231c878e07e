package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type opcion struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*OptionsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewOptionsCache(client, ttl), mr
}

func TestGetDevuelveMissEnClaveAusente(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)

	var destino []opcion
	hit, err := cache.Get(context.Background(), "opciones:proveedores", &destino)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestSetYGetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	valores := []opcion{{ID: 1, Nombre: "BH Photo"}, {ID: 2, Nombre: "Amazon"}}
	require.NoError(t, cache.Set(ctx, "opciones:proveedores", valores))

	var destino []opcion
	hit, err := cache.Get(ctx, "opciones:proveedores", &destino)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, valores, destino)
}

func TestInvalidateBorraLaClave(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "opciones:clientes", []opcion{{ID: 3, Nombre: "Mostrador"}}))
	require.NoError(t, cache.Invalidate(ctx, "opciones:clientes"))

	var destino []opcion
	hit, err := cache.Get(ctx, "opciones:clientes", &destino)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestEntradaExpiraConTTL(t *testing.T) {
	cache, mr := newTestCache(t, time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "opciones:proveedores", []opcion{{ID: 1, Nombre: "BH Photo"}}))
	mr.FastForward(2 * time.Second)

	var destino []opcion
	hit, err := cache.Get(ctx, "opciones:proveedores", &destino)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestClienteNilEsSeguro(t *testing.T) {
	cache := NewOptionsCache(nil, time.Minute)
	ctx := context.Background()

	var destino []opcion
	hit, err := cache.Get(ctx, "opciones:proveedores", &destino)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, cache.Set(ctx, "opciones:proveedores", []opcion{{ID: 1, Nombre: "BH Photo"}}))
	require.NoError(t, cache.Invalidate(ctx, "opciones:proveedores"))
}
