package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"commerce-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// generations outlive any list read by far; an expired one reads as 0 and
// only makes a pending Set miss.
const generationTTL = time.Hour

var errStaleList = errors.New("order list changed while it was read")

// OrderListCache keeps short-lived copies of a customer's order list.
//
// Every Invalidate bumps a per-customer generation. Readers take the
// generation before querying the database and Set only stores the list when
// it is unchanged, so a list read before an order was placed is never cached
// after that order's invalidation.
type OrderListCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewOrderListCache(rdb *redis.Client, ttl time.Duration) *OrderListCache {
	return &OrderListCache{redis: rdb, ttl: ttl}
}

func customerOrdersKey(customerID uint64) string {
	return "orders:customer:" + strconv.FormatUint(customerID, 10)
}

func customerGenerationKey(customerID uint64) string {
	return customerOrdersKey(customerID) + ":gen"
}

func (c *OrderListCache) Get(ctx context.Context, customerID uint64) ([]domain.Order, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	b, err := c.redis.Get(ctx, customerOrdersKey(customerID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[cache] redis error: %v", err)
		}
		return nil, false
	}
	var orders []domain.Order
	if err := json.Unmarshal(b, &orders); err != nil {
		log.Printf("[cache] failed to unmarshal orders of customer %d: %v", customerID, err)
		return nil, false
	}
	return orders, true
}

// Generation returns the current generation for customerID, or -1 when it
// cannot be read, which makes the following Set a no-op.
func (c *OrderListCache) Generation(ctx context.Context, customerID uint64) int64 {
	if c == nil || c.redis == nil {
		return -1
	}
	gen, err := c.redis.Get(ctx, customerGenerationKey(customerID)).Int64()
	switch {
	case err == nil:
		return gen
	case errors.Is(err, redis.Nil):
		return 0
	}
	log.Printf("[cache] failed to read order list generation: %v", err)
	return -1
}

// Set stores orders if no invalidation happened since generation was read.
func (c *OrderListCache) Set(ctx context.Context, customerID uint64, generation int64, orders []domain.Order) {
	if c == nil || c.redis == nil || generation < 0 {
		return
	}
	data, err := json.Marshal(orders)
	if err != nil {
		log.Printf("[cache] failed to marshal orders of customer %d: %v", customerID, err)
		return
	}

	genKey := customerGenerationKey(customerID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleList
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, customerOrdersKey(customerID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleList), errors.Is(err, redis.TxFailedErr):
		log.Printf("[cache] skipped caching orders of customer %d: list changed", customerID)
	default:
		log.Printf("[cache] failed to cache orders of customer %d: %v", customerID, err)
	}
}

func (c *OrderListCache) Invalidate(ctx context.Context, customerID uint64) {
	if c == nil || c.redis == nil {
		return
	}
	genKey := customerGenerationKey(customerID)
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, customerOrdersKey(customerID))
		return nil
	})
	if err != nil {
		log.Printf("[cache] failed to invalidate orders of customer %d: %v", customerID, err)
	}
}
