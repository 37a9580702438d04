package local_test

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/adapters/cache"
	"github.com/careconnect/backend/internal/adapters/storage"
	"github.com/careconnect/backend/internal/domain/entities"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*entities.ChangeEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event *entities.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []*entities.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*entities.ChangeEvent(nil), p.events...)
}

func newStore() (*storage.JSONStore, *cache.MemoryAdapter) {
	kv := cache.NewMemoryAdapter()
	return storage.NewJSONStore(kv, zerolog.Nop()), kv
}

func ptr[T any](v T) *T {
	return &v
}
