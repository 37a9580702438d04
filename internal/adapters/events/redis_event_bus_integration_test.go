//go:build integration

package events

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/backend/internal/domain/entities"
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
		KeyPrefix: "careconnect-test:",
	}, zerolog.Nop())
	require.NoError(t, err, "Failed to create redis client")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	client := newTestRedisClient(t)
	bus := NewRedisEventBus(client, 10, zerolog.Nop())
	defer bus.Close()

	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	channel := providers.EventChannelChanges + ":test"
	sub1, err := bus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := bus.Subscribe(ctx2, channel)
	require.NoError(t, err)

	event := entities.NewChangeEvent(entities.ChangeTypeAppointments, "appointments", "a1", entities.ChangeOpUpdated, map[string]string{"status": "CONFIRMED"})
	event.Origin = "tab-1"
	require.NoError(t, bus.Publish(context.Background(), channel, event))

	received1 := waitForChangeEvent(t, sub1)
	received2 := waitForChangeEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, "tab-1", received1.Origin)
	assert.JSONEq(t, `{"status":"CONFIRMED"}`, string(received1.Payload))
	assert.Equal(t, event.ID, received2.ID)
}
