package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/careconnect/backend/internal/domain/providers"
	redisclient "github.com/careconnect/backend/internal/infrastructure/clients/redis"
)

// defaultMaxTxAttempts bounds optimistic transaction retries in Update.
const defaultMaxTxAttempts = 5

// RedisAdapter implements the KVStore interface with durable Redis keys
type RedisAdapter struct {
	client        *redisclient.Client
	prefix        string
	maxTxAttempts int
}

var _ providers.KVStore = (*RedisAdapter)(nil)

// NewRedisAdapter creates a new Redis key-value adapter. Keys are stored under
// the client's key prefix.
func NewRedisAdapter(client *redisclient.Client) *RedisAdapter {
	return &RedisAdapter{
		client:        client,
		prefix:        client.KeyPrefix(),
		maxTxAttempts: defaultMaxTxAttempts,
	}
}

func (a *RedisAdapter) key(key string) string {
	return a.prefix + key
}

// Get retrieves a value
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, a.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return result, nil
}

// Set stores a value without expiration
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte) error {
	if err := a.client.Client().Set(ctx, a.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside a WATCH/MULTI transaction and retries when another
// writer touched the key in between.
func (a *RedisAdapter) Update(ctx context.Context, key string, fn providers.UpdateFunc) error {
	fullKey := a.key(key)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, fullKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if errors.Is(err, redis.Nil) {
			current = nil
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, fullKey, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < a.maxTxAttempts; attempt++ {
		err := a.client.Client().Watch(ctx, txf, fullKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: %w", key, providers.ErrConflict)
}

// Delete removes a value
func (a *RedisAdapter) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := a.client.Client().Del(ctx, a.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return removed > 0, nil
}

// Keys lists keys starting with prefix, without the namespace prefix
func (a *RedisAdapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := a.client.Client().Scan(ctx, 0, a.key(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), a.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	return keys, nil
}
