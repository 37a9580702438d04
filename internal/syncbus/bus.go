package syncbus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/domain/providers"
)

// writeEchoWindow bounds how long an own write waits for its storage notification.
const writeEchoWindow = 5 * time.Second

// Bus propagates change events to views in this process, to other processes
// over the broadcast channel, and turns storage notifications caused by other
// processes into refresh cues. Delivery is best effort and unordered.
type Bus struct {
	origin    string
	emitter   *Emitter
	broadcast providers.EventBus
	watcher   providers.StorageWatcher
	channel   string
	logger    zerolog.Logger

	mu      sync.Mutex
	pending map[string][]time.Time
	now     func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBus creates a bus. broadcast and watcher are optional; without them the
// bus only reaches handlers registered in this process.
func NewBus(broadcast providers.EventBus, watcher providers.StorageWatcher, channel string, logger zerolog.Logger) *Bus {
	if channel == "" {
		channel = providers.EventChannelChanges
	}
	origin := uuid.NewString()
	logger = logger.With().Str("component", "syncbus").Str("origin", origin).Logger()
	return &Bus{
		origin:    origin,
		emitter:   NewEmitter(logger),
		broadcast: broadcast,
		watcher:   watcher,
		channel:   channel,
		logger:    logger,
		pending:   make(map[string][]time.Time),
		now:       time.Now,
	}
}

// Origin identifies this bus in broadcast messages
func (b *Bus) Origin() string {
	return b.origin
}

// On registers a handler; see Emitter.On
func (b *Bus) On(name string, handler Handler) ListenerID {
	return b.emitter.On(name, handler)
}

// Off removes a handler; see Emitter.Off
func (b *Bus) Off(name string, id ListenerID) bool {
	return b.emitter.Off(name, id)
}

// Publish stamps event with this bus's origin, delivers it locally and
// broadcasts it to other processes.
func (b *Bus) Publish(ctx context.Context, event *entities.ChangeEvent) error {
	event.Origin = b.origin
	b.emitter.Emit(event.Type, event)

	if b.broadcast == nil {
		return nil
	}
	if err := b.broadcast.Publish(ctx, b.channel, event); err != nil {
		return fmt.Errorf("failed to broadcast %s: %w", event.Type, err)
	}
	return nil
}

// Start begins receiving broadcast messages and storage notifications until
// ctx is done or Close is called. When keys are given, only storage changes of
// keys starting with one of them produce refresh cues.
func (b *Bus) Start(ctx context.Context, keys ...string) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	if b.broadcast != nil {
		events, err := b.broadcast.Subscribe(ctx, b.channel)
		if err != nil {
			cancel()
			return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
		}
		b.wg.Add(1)
		go b.receiveBroadcasts(ctx, events)
	}

	if b.watcher != nil {
		changes, err := b.watcher.Watch(ctx)
		if err != nil {
			cancel()
			return fmt.Errorf("failed to watch storage: %w", err)
		}
		b.wg.Add(1)
		go b.receiveStorageChanges(ctx, changes, keys)
	}

	b.logger.Info().Str("channel", b.channel).Msg("sync bus started")
	return nil
}

// Close stops the receivers started by Start
func (b *Bus) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

func (b *Bus) receiveBroadcasts(ctx context.Context, events <-chan *entities.ChangeEvent) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event == nil || event.Origin == b.origin {
				continue
			}
			b.emitter.Emit(event.Type, event)
		}
	}
}

func (b *Bus) receiveStorageChanges(ctx context.Context, changes <-chan string, keys []string) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-changes:
			if !ok {
				return
			}
			if !matchesAny(key, keys) || b.consumeOwnWrite(key) {
				continue
			}
			event := entities.NewChangeEvent(entities.ChangeTypeStorage, key, "", entities.ChangeOpRefresh, nil)
			b.emitter.Emit(event.Type, event)
		}
	}
}

// BeginWrite records that this process is about to write key, so the
// resulting storage notification is not reported back to it.
func (b *Bus) BeginWrite(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[key] = append(b.pending[key], b.now().Add(writeEchoWindow))
}

// AbortWrite forgets a write announced by BeginWrite that did not happen
func (b *Bus) AbortWrite(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if list := b.pending[key]; len(list) > 0 {
		b.setPendingLocked(key, list[1:])
	}
}

func (b *Bus) consumeOwnWrite(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	list := b.pending[key]
	for len(list) > 0 && list[0].Before(now) {
		list = list[1:]
	}
	if len(list) == 0 {
		b.setPendingLocked(key, nil)
		return false
	}
	b.setPendingLocked(key, list[1:])
	return true
}

func (b *Bus) setPendingLocked(key string, list []time.Time) {
	if len(list) == 0 {
		delete(b.pending, key)
		return
	}
	b.pending[key] = list
}

func matchesAny(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
