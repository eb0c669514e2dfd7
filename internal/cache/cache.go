// Package cache provides a Redis read-through cache in front of the contract
// reader. Only equipment records are cached: they are fixed at mint time,
// while listings and rentals change with every trade.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/equipment-market/internal/chain"
	"github.com/cory-johannsen/equipment-market/internal/config"
	"github.com/cory-johannsen/equipment-market/internal/market"
)

const equipmentKeyPrefix = "equipment:"

// Client is the subset of go-redis used by the cache.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewClient builds a go-redis client from cfg.
//
// Precondition: cfg.Enabled() is true.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis: addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}), nil
}

// EquipmentCache wraps a chain.Reader, caching Equipment lookups.
type EquipmentCache struct {
	chain.Reader
	client Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ chain.Reader = (*EquipmentCache)(nil)

// NewEquipmentCache creates an EquipmentCache.
//
// Precondition: inner, client, and logger must be non-nil; ttl > 0.
func NewEquipmentCache(inner chain.Reader, client Client, ttl time.Duration, logger *zap.Logger) *EquipmentCache {
	return &EquipmentCache{
		Reader: inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Equipment returns the cached record for tokenID, loading it from the inner
// reader on a miss. Redis failures fall back to the inner reader.
func (c *EquipmentCache) Equipment(ctx context.Context, tokenID uint64) (market.Equipment, error) {
	key := equipmentKey(tokenID)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var eq market.Equipment
		jerr := json.Unmarshal(data, &eq)
		if jerr == nil {
			return eq, nil
		}
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(jerr))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("equipment cache read failed", zap.String("key", key), zap.Error(err))
	}

	eq, err := c.Reader.Equipment(ctx, tokenID)
	if err != nil {
		return market.Equipment{}, err
	}

	encoded, err := json.Marshal(eq)
	if err != nil {
		return market.Equipment{}, fmt.Errorf("encoding equipment %d: %w", tokenID, err)
	}
	if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.logger.Warn("equipment cache write failed", zap.String("key", key), zap.Error(err))
	}
	return eq, nil
}

// Invalidate drops the cached record for tokenID.
func (c *EquipmentCache) Invalidate(ctx context.Context, tokenID uint64) error {
	if err := c.client.Del(ctx, equipmentKey(tokenID)).Err(); err != nil {
		return fmt.Errorf("invalidating equipment %d: %w", tokenID, err)
	}
	return nil
}

func equipmentKey(tokenID uint64) string {
	return fmt.Sprintf("%s%d", equipmentKeyPrefix, tokenID)
}
