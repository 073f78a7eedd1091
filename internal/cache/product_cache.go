package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const notFoundMarker = "notfound"

// ProductCache serves product reads from redis. Concurrent misses for the same
// id share one database query. A nil client turns it into a pass-through.
type ProductCache struct {
	repo  repository.ProductRepository
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

func NewProductCache(repo repository.ProductRepository, rdb *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{repo: repo, redis: rdb, ttl: ttl}
}

func productKey(id uint64) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *ProductCache) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	if c.redis == nil {
		return c.repo.FindByID(ctx, id)
	}

	key := productKey(id)
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, repository.ErrNotFound
		}
		var p domain.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		log.Printf("[cache] failed to unmarshal cached product %d (continuing with DB)", id)
	case errors.Is(err, redis.Nil):
	default:
		log.Printf("[cache] redis error (continuing with DB): %v", err)
	}

	v, err, _ := c.group.Do(strconv.FormatUint(id, 10), func() (any, error) {
		return c.load(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*domain.Product)
	return &p, nil
}

func (c *ProductCache) load(ctx context.Context, id uint64) (*domain.Product, error) {
	key := productKey(id)
	p, err := c.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, time.Minute).Err(); setErr != nil {
				log.Printf("[cache] failed to cache notfound: %v", setErr)
			}
		}
		return nil, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("[cache] failed to marshal product: %v", err)
		return p, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("[cache] failed to cache product: %v", err)
	}
	return p, nil
}

// Invalidate drops cached entries; failures only cost a stale read until TTL.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...uint64) {
	if c.redis == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[cache] failed to delete product cache %v: %v", keys, err)
	}
}
