package cache

import (
	"context"
	"testing"
	"time"

	"commerce-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrders() []domain.Order {
	return []domain.Order{
		{ID: 2, Number: "b", Total: decimal.RequireFromString("35.00"), Status: domain.StatusPending},
		{ID: 1, Number: "a", Total: decimal.RequireFromString("10.50"), Status: domain.StatusDelivered},
	}
}

func TestOrderListCache_RoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	c := NewOrderListCache(rdb, 10*time.Second)

	_, ok := c.Get(ctx, 7)
	assert.False(t, ok)

	gen := c.Generation(ctx, 7)
	assert.Equal(t, int64(0), gen)
	c.Set(ctx, 7, gen, sampleOrders())

	got, ok := c.Get(ctx, 7)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].ID)
	assert.Equal(t, "35", got[0].Total.String())
	assert.Equal(t, domain.StatusDelivered, got[1].Status)
	assert.Equal(t, 10*time.Second, mr.TTL(customerOrdersKey(7)))

	_, ok = c.Get(ctx, 8)
	assert.False(t, ok, "lists are per customer")
}

func TestOrderListCache_Invalidate(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	c := NewOrderListCache(rdb, 10*time.Second)

	c.Set(ctx, 7, c.Generation(ctx, 7), sampleOrders())
	c.Invalidate(ctx, 7)

	_, ok := c.Get(ctx, 7)
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Generation(ctx, 7))
	assert.Equal(t, generationTTL, mr.TTL(customerGenerationKey(7)))

	c.Set(ctx, 7, c.Generation(ctx, 7), sampleOrders()[:1])
	got, ok := c.Get(ctx, 7)
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestOrderListCache_SetAfterInvalidateIsDropped(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	c := NewOrderListCache(rdb, 10*time.Second)

	// a reader takes the generation and queries the database; an order is
	// placed and invalidates before the reader stores its now outdated list
	gen := c.Generation(ctx, 7)
	outdated := sampleOrders()[:1]
	c.Invalidate(ctx, 7)
	c.Set(ctx, 7, gen, outdated)

	_, ok := c.Get(ctx, 7)
	assert.False(t, ok)

	c.Set(ctx, 7, -1, outdated)
	_, ok = c.Get(ctx, 7)
	assert.False(t, ok, "unknown generation never stores")
}

func TestOrderListCache_RedisUnavailable(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	c := NewOrderListCache(rdb, 10*time.Second)
	mr.Close()

	assert.Equal(t, int64(-1), c.Generation(ctx, 7))
	c.Set(ctx, 7, 0, sampleOrders())
	c.Invalidate(ctx, 7)
	_, ok := c.Get(ctx, 7)
	assert.False(t, ok)
}

func TestOrderListCache_NilSafe(t *testing.T) {
	var c *OrderListCache
	ctx := context.Background()

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	assert.Equal(t, int64(-1), c.Generation(ctx, 1))
	c.Set(ctx, 1, 0, nil)
	c.Invalidate(ctx, 1)

	_, ok = NewOrderListCache(nil, 0).Get(ctx, 1)
	assert.False(t, ok)
}
