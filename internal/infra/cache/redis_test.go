package cache

import (
	"context"
	"testing"
	"time"

	"shop/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_SetThenGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	items := []model.CartItem{
		{UserID: 1, ProductID: 10, Quantity: 2},
		{UserID: 1, ProductID: 11, Quantity: 1},
	}
	v, err := c.Version(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	require.NoError(t, c.Set(ctx, 1, v, items))
	assert.True(t, mr.Exists("cart:1"))

	ttl := mr.TTL("cart:1")
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].Quantity)
}

func TestRedisCache_EmptyCartIsCached(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, 0, nil))

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	_, err := c.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_InvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:1", "{broken"))

	_, err := c.Get(context.Background(), 1)
	assert.ErrorContains(t, err, "unmarshal cart failed")
}

func TestRedisCache_InvalidateBumpsVersion(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, 0, []model.CartItem{{ProductID: 1, Quantity: 1}}))
	require.NoError(t, c.Invalidate(ctx, 1))
	assert.False(t, mr.Exists("cart:1"))

	v, err := c.Version(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	// 無いキーでもエラーにしない
	require.NoError(t, c.Invalidate(ctx, 1))
	v, err = c.Version(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

// 世代を取ったあとに明細が変わったら古い明細は書かない
func TestRedisCache_SetAfterInvalidateIsStale(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	v, err := c.Version(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, 1))

	err = c.Set(ctx, 1, v, []model.CartItem{{ProductID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, ErrStale)
	assert.False(t, mr.Exists("cart:1"))

	// 新しい世代なら書ける
	v, err = c.Version(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, 1, v, []model.CartItem{{ProductID: 1, Quantity: 2}}))
	assert.True(t, mr.Exists("cart:1"))
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	_, err = c.Version(context.Background(), 1)
	assert.Error(t, err)
}
