package providers

import (
	"context"

	"github.com/careconnect/backend/internal/domain/entities"
)

// EventBus broadcasts change events between execution contexts
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ChangeEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ChangeEvent, error)

	// Unsubscribe drops every subscriber of a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelChanges is the default broadcast channel for change events.
const EventChannelChanges = "sync:changes"
