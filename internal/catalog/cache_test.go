package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	sale := int64(900)
	in := Product{ID: "book-1", Title: "Dune", BasePrice: 1200, SalePrice: &sale, InStock: true}
	require.NoError(t, cache.SetJSON(ctx, "product:book-1", in))

	var out Product
	ok, err := cache.GetJSON(ctx, "product:book-1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, in, out)

	ok, err = cache.GetJSON(ctx, "product:missing", &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetJSON(ctx, "list", []Product{{ID: "a", BasePrice: 100}}))
	require.NoError(t, cache.SetJSON(ctx, "product:a", Product{ID: "a", BasePrice: 100}))
	require.NoError(t, cache.Invalidate(ctx))

	var out []Product
	ok, err := cache.GetJSON(ctx, "list", &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache
	ctx := context.Background()
	ok, err := cache.GetJSON(ctx, "list", nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, cache.SetJSON(ctx, "list", "x"))
	require.NoError(t, cache.Invalidate(ctx))
}
