package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/bewie03/epok/internal/common/errors"
	"github.com/bewie03/epok/internal/common/logger"
)

var ErrCacheMiss = errors.New("cache miss")

// CacheService stores JSON values in redis
type CacheService struct {
	client redis.Cmdable
}

func NewCacheService(client redis.Cmdable) *CacheService {
	return &CacheService{client: client}
}

// Get decodes the cached value into dest. Returns ErrCacheMiss when absent.
// An entry that no longer decodes is dropped.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return apperrors.NewCacheError("get "+key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		if delErr := c.Delete(ctx, key); delErr != nil {
			logger.Warn().Err(delErr).Str("key", key).Msg("Failed to drop undecodable cache entry")
		}
		return apperrors.NewCacheError("decode "+key, err)
	}
	return nil
}

// Set stores value as JSON
func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *CacheService) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// GetOrSet reads the key, or calls setter and caches its result.
// Cache failures never hide a successful setter result.
func (c *CacheService) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, setter func() (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}

	value, err := setter()
	if err != nil {
		return err
	}

	_ = c.Set(ctx, key, value, ttl)

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
