package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_storefront/internal/domain"
)

const (
	cartTTL  = 15 * time.Minute
	storeTTL = time.Minute
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:   client,
		baseTTL:  cartTTL,
		storeTTL: storeTTL,
	}
}

type RedisCache struct {
	client   *redis.Client
	baseTTL  time.Duration
	storeTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := r.getJSON(ctx, cartKey(userID), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Set stores the cart with a jittered TTL so entries written together do not
// expire together.
func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	return r.setJSON(ctx, cartKey(userID), cart, r.baseTTL+jitter)
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) GetStore(ctx context.Context, storeID string) (*domain.StoreConfig, error) {
	var cfg domain.StoreConfig
	if err := r.getJSON(ctx, storeKey(storeID), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *RedisCache) SetStore(ctx context.Context, cfg *domain.StoreConfig) error {
	return r.setJSON(ctx, storeKey(cfg.ID), cfg, r.storeTTL)
}

func (r *RedisCache) DeleteStore(ctx context.Context, storeID string) error {
	if err := r.client.Del(ctx, storeKey(storeID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) getJSON(ctx context.Context, key string, dst any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func storeKey(storeID string) string {
	return fmt.Sprintf("store:%s", storeID)
}
