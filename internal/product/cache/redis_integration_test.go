//go:build integration

package cache_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/product/cache"
	"custos/internal/product/models"
	id "custos/pkg/domain"
	"custos/pkg/testutil/containers"
)

func newSnapshotCache(t *testing.T, ctx context.Context, ttl time.Duration) *cache.Snapshot {
	t.Helper()
	connStr := containers.StartRedis(ctx, t)
	opts, err := redis.ParseURL(connStr)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })
	return cache.NewSnapshot(client, ttl, slog.New(slog.DiscardHandler))
}

func sampleProduct(t *testing.T) *models.Product {
	t.Helper()
	owner := id.PartyID(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	product, err := models.NewProduct("SN-0001", owner, "ipfs://bafy/widget.json", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, err)
	return product
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	snapshots := newSnapshotCache(t, ctx, time.Minute)
	product := sampleProduct(t)

	_, ok := snapshots.Get(ctx, product.ID)
	require.False(t, ok)

	snapshots.Set(ctx, product)
	got, ok := snapshots.Get(ctx, product.ID)
	require.True(t, ok)
	assert.Equal(t, product, got)
}

func TestSnapshotInvalidate(t *testing.T) {
	ctx := context.Background()
	snapshots := newSnapshotCache(t, ctx, time.Minute)
	product := sampleProduct(t)

	snapshots.Set(ctx, product)
	snapshots.Invalidate(ctx, product.ID)

	_, ok := snapshots.Get(ctx, product.ID)
	assert.False(t, ok)
}

func TestSnapshotExpires(t *testing.T) {
	ctx := context.Background()
	snapshots := newSnapshotCache(t, ctx, time.Second)
	product := sampleProduct(t)

	snapshots.Set(ctx, product)
	assert.Eventually(t, func() bool {
		_, ok := snapshots.Get(ctx, product.ID)
		return !ok
	}, 5*time.Second, 200*time.Millisecond)
}
