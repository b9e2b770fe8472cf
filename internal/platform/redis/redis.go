package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/bewie03/epok/internal/common/config"
	"github.com/bewie03/epok/internal/common/logger"
)

// Client wraps go-redis client to allow future extensions.
type Client struct {
	*redis.Client
}

// Open creates a new Redis client and pings it to validate the connection.
func Open(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("empty redis addr")
	}
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Redis.Addr).
		Int("db", cfg.Redis.DB).
		Msg("Redis client initialized")

	return &Client{Client: c}, nil
}

// HealthCheck pings the server
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
