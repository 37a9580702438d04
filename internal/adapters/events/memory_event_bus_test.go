package events

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/providers"
)

func waitForChangeEvent(t *testing.T, ch <-chan *entities.ChangeEvent) *entities.ChangeEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
		return nil
	}
}

func TestMemoryEventBusFanout(t *testing.T) {
	bus := NewMemoryEventBus(10, zerolog.Nop())
	defer bus.Close()

	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := bus.Subscribe(ctx1, providers.EventChannelChanges)
	require.NoError(t, err)
	sub2, err := bus.Subscribe(ctx2, providers.EventChannelChanges)
	require.NoError(t, err)

	event := entities.NewChangeEvent(entities.ChangeTypeAppointments, "appointments", "a1", entities.ChangeOpCreated, map[string]string{"id": "a1"})
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelChanges, event))

	assert.Equal(t, event.ID, waitForChangeEvent(t, sub1).ID)
	assert.Equal(t, event.ID, waitForChangeEvent(t, sub2).ID)
}

func TestMemoryEventBusChannelsAreIsolated(t *testing.T) {
	bus := NewMemoryEventBus(10, zerolog.Nop())
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), "other")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelChanges, entities.NewChangeEvent("x", "", "", entities.ChangeOpRefresh, nil)))

	select {
	case <-sub:
		t.Fatal("event leaked to another channel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryEventBusSubscriberRemovedOnCancel(t *testing.T) {
	bus := NewMemoryEventBus(10, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := bus.Subscribe(ctx, providers.EventChannelChanges)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		_, open := <-sub
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryEventBusClose(t *testing.T) {
	bus := NewMemoryEventBus(10, zerolog.Nop())
	sub, err := bus.Subscribe(context.Background(), providers.EventChannelChanges)
	require.NoError(t, err)

	require.NoError(t, bus.Close())

	_, open := <-sub
	assert.False(t, open)
	assert.ErrorIs(t, bus.Publish(context.Background(), providers.EventChannelChanges, &entities.ChangeEvent{}), ErrBusClosed)
	_, err = bus.Subscribe(context.Background(), providers.EventChannelChanges)
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestMemoryEventBusDropsWhenQueueFull(t *testing.T) {
	bus := NewMemoryEventBus(1, zerolog.Nop())
	defer bus.Close()
	sub, err := bus.Subscribe(context.Background(), providers.EventChannelChanges)
	require.NoError(t, err)

	first := entities.NewChangeEvent("first", "", "", entities.ChangeOpRefresh, nil)
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelChanges, first))
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelChanges, entities.NewChangeEvent("second", "", "", entities.ChangeOpRefresh, nil)))

	assert.Equal(t, first.ID, waitForChangeEvent(t, sub).ID)
	select {
	case <-sub:
		t.Fatal("expected the second event to be dropped")
	default:
	}
}
