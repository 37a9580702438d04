//go:build integration

package cache

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/backend/internal/domain/providers"
	redisclient "github.com/careconnect/backend/internal/infrastructure/clients/redis"
	"github.com/careconnect/backend/pkg/config"
)

func newTestRedisClient(t *testing.T) *redisclient.Client {
	t.Helper()
	host := os.Getenv("TEST_REDIS_HOST")
	if host == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if port == 0 {
		port = 6379
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := redisclient.NewClient(ctx, &config.RedisConfig{
		Host:      host,
		Port:      port,
		Password:  os.Getenv("TEST_REDIS_PASSWORD"),
		KeyPrefix: "careconnect-test:" + uuid.NewString()[:8] + ":",
	}, zerolog.Nop())
	require.NoError(t, err, "Failed to create redis client")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisAdapterIntegration(t *testing.T) {
	client := newTestRedisClient(t)
	store := NewRedisAdapter(client)
	ctx := context.Background()

	_, err := store.Get(ctx, "appointments")
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "appointments", []byte("[]")))
	value, err := store.Get(ctx, "appointments")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value))

	keys, err := store.Keys(ctx, "appoint")
	require.NoError(t, err)
	assert.Equal(t, []string{"appointments"}, keys)

	removed, err := store.Delete(ctx, "appointments")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, "appointments")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRedisAdapterConcurrentUpdatesIntegration(t *testing.T) {
	client := newTestRedisClient(t)
	store := NewRedisAdapter(client)
	store.maxTxAttempts = 50
	ctx := context.Background()

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, "counter", func(current []byte) ([]byte, error) {
				n, _ := strconv.Atoi(string(current))
				return []byte(strconv.Itoa(n + 1)), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	value, err := store.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(writers), string(value))
}

func TestKeyspaceWatcherIntegration(t *testing.T) {
	client := newTestRedisClient(t)
	watcher := NewKeyspaceWatcher(client, zerolog.Nop())
	store := NewRedisAdapter(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	keys, err := watcher.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "doctor_profiles", []byte("[]")))

	select {
	case key := <-keys:
		assert.Equal(t, "doctor_profiles", key)
	case <-time.After(2 * time.Second):
		t.Skip("keyspace notifications are disabled on this server")
	}
}
