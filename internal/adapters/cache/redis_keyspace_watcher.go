package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/providers"
	redisclient "github.com/careconnect/backend/internal/infrastructure/clients/redis"
)

// KeyspaceWatcher turns Redis keyspace notifications for the data-layer
// prefix into storage change notifications.
type KeyspaceWatcher struct {
	client *redisclient.Client
	logger zerolog.Logger
}

var _ providers.StorageWatcher = (*KeyspaceWatcher)(nil)

// NewKeyspaceWatcher creates a watcher over the client's key prefix
func NewKeyspaceWatcher(client *redisclient.Client, logger zerolog.Logger) *KeyspaceWatcher {
	return &KeyspaceWatcher{client: client, logger: logger}
}

func (w *KeyspaceWatcher) channelPrefix() string {
	return fmt.Sprintf("__keyspace@%d__:%s", w.client.DB(), w.client.KeyPrefix())
}

// Watch enables keyspace events for generic and string commands and streams
// the logical keys that changed until ctx is done.
func (w *KeyspaceWatcher) Watch(ctx context.Context) (<-chan string, error) {
	// Managed Redis often forbids CONFIG; notifications may already be enabled there.
	if err := w.client.Client().ConfigSet(ctx, "notify-keyspace-events", "K$g").Err(); err != nil {
		w.logger.Warn().Err(err).Msg("could not enable keyspace notifications")
	}

	prefix := w.channelPrefix()
	pubsub := w.client.Client().PSubscribe(ctx, prefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace events: %w", err)
	}

	out := make(chan string, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				key := strings.TrimPrefix(msg.Channel, prefix)
				select {
				case out <- key:
				default:
					w.logger.Warn().Str("key", key).Msg("storage watcher buffer full, dropping notification")
				}
			}
		}
	}()

	return out, nil
}
