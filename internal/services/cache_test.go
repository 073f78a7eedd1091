package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"commerce-service/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_CachesInvalidatedByOrdersAndRestock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	products := cache.NewProductCache(f.repos.Products, rdb, time.Minute)
	f.orders.SetCaches(products, cache.NewOrderListCache(rdb, time.Minute))
	catalog := NewCatalogService(f.repos, products)

	p := f.product(t, "C1", "10.00", 5)
	c := f.customer(t, "ana@example.com")
	productKey := fmt.Sprintf("product:%d", p.ID)
	listKey := fmt.Sprintf("orders:customer:%d", c.ID)

	got, err := catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)
	list, err := f.orders.ListCustomerOrders(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	require.True(t, mr.Exists(productKey))
	require.True(t, mr.Exists(listKey))

	in := guestOrder(line(p.ID, 2))
	in.CustomerID = &c.ID
	_, err = f.orders.CreateOrder(ctx, in)
	require.NoError(t, err)

	assert.False(t, mr.Exists(productKey), "placing an order drops the product entry")
	assert.False(t, mr.Exists(listKey), "placing an order drops the customer's list")

	got, err = catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.StockQuantity)
	list, err = f.orders.ListCustomerOrders(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = catalog.AdjustStock(ctx, p.ID, AdjustStockInput{Delta: 10, Reason: "supplier delivery"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(productKey), "restocking drops the product entry")

	got, err = catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, got.StockQuantity)
}
