package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/providers"
)

// ErrBusClosed is returned by a closed MemoryEventBus
var ErrBusClosed = errors.New("event bus closed")

// MemoryEventBus is an in-process EventBus for tests and single-process runs.
// Every published event reaches every subscriber, including the publisher's own.
type MemoryEventBus struct {
	subscribers *subscriberSet
	mu          sync.RWMutex
	closed      bool
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// NewMemoryEventBus creates an in-memory event bus
func NewMemoryEventBus(bufferSize int, logger zerolog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		subscribers: newSubscriberSet(bufferSize, logger.With().Str("component", "memory_event_bus").Logger()),
	}
}

// Publish delivers the event to the current subscribers of channel
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.ChangeEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	copied := *event
	b.subscribers.deliver(channel, &copied)
	return nil
}

// Subscribe subscribes to events on a channel until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ChangeEvent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	queue, _ := b.subscribers.add(channel)
	go func() {
		<-ctx.Done()
		b.subscribers.remove(channel, queue)
	}()
	return queue, nil
}

// Unsubscribe drops every subscriber of a channel
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.subscribers.removeChannel(channel)
	return nil
}

// Close drops every subscriber
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, channel := range b.subscribers.channelNames() {
		b.subscribers.removeChannel(channel)
	}
	return nil
}
