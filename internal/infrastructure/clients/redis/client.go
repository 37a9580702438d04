package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/careconnect/backend/pkg/config"
	"github.com/careconnect/backend/pkg/retry"
)

// Client represents a Redis client
type Client struct {
	client *redis.Client
	db     int
	prefix string
}

// NewClient creates a new Redis client and waits for the server with backoff
func NewClient(ctx context.Context, cfg *config.RedisConfig, logger zerolog.Logger) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := retry.Connect(ctx, retry.DefaultConfig(), "redis", logger, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Str("addr", cfg.RedisAddr()).Int("db", cfg.DB).Msg("connected to Redis")
	return &Client{client: client, db: cfg.DB, prefix: cfg.KeyPrefix}, nil
}

// Wrap adapts an existing go-redis client, mainly for tests
func Wrap(client *redis.Client, db int, prefix string) *Client {
	return &Client{client: client, db: db, prefix: prefix}
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.client
}

// DB returns the logical database number
func (c *Client) DB() int {
	return c.db
}

// KeyPrefix returns the namespace prefix for data-layer keys
func (c *Client) KeyPrefix() string {
	return c.prefix
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping verifies the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
