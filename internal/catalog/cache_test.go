package catalog

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	*memoryRepo
	getCalls int
}

func (r *countingRepo) Get(ctx context.Context, id string) (Product, error) {
	r.getCalls++
	return r.memoryRepo.Get(ctx, id)
}

func newTestCache(t *testing.T) (*Cache, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(client, time.Minute), func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, cleanup := newTestCache(t)
	defer cleanup()
	ctx := context.Background()

	product := Product{ID: "p1", SKU: "SKU-1", Name: "Bolt", Unit: "pcs", Quantity: 4, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, cache.Set(ctx, product))

	got, ok := cache.Get(ctx, "p1")
	require.True(t, ok)
	require.Equal(t, product.Quantity, got.Quantity)
	require.Equal(t, product.SKU, got.SKU)

	require.NoError(t, cache.Invalidate(ctx, "p1"))
	_, ok = cache.Get(ctx, "p1")
	require.False(t, ok)
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	cache, cleanup := newTestCache(t)
	defer cleanup()

	_, ok := cache.Get(context.Background(), "nope")
	require.False(t, ok)
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	_, ok := cache.Get(ctx, "p1")
	require.False(t, ok)
	require.NoError(t, cache.Set(ctx, Product{ID: "p1"}))
	require.NoError(t, cache.Invalidate(ctx, "p1"))
}

func TestServiceGetReadsThroughCache(t *testing.T) {
	cache, cleanup := newTestCache(t)
	defer cleanup()

	repo := &countingRepo{memoryRepo: newMemoryRepo()}
	svc := NewService(repo, cache)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductForm{Name: "Bolt", Unit: "pcs", Quantity: 7})
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 1, repo.getCalls)

	// Writes invalidate, so the next read goes back to the store.
	_, err = svc.Patch(ctx, created.ID, ProductPatch{Quantity: ptr(int64(9))})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.EqualValues(t, 9, got.Quantity)
}
