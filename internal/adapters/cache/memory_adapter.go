package cache

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/careconnect/backend/internal/domain/providers"
)

// MemoryAdapter is an in-process KVStore for tests and single-process
// development. It also reports writes to watchers like a storage event source.
type MemoryAdapter struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[chan string]struct{}
	failing  error
}

var (
	_ providers.KVStore        = (*MemoryAdapter)(nil)
	_ providers.StorageWatcher = (*MemoryAdapter)(nil)
)

// NewMemoryAdapter creates an empty in-memory store
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		data:     make(map[string][]byte),
		watchers: make(map[chan string]struct{}),
	}
}

// FailWith makes every subsequent operation return err; nil restores normal behavior.
func (m *MemoryAdapter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = err
}

// Get retrieves a copy of a value
func (m *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return nil, m.failing
	}
	value, ok := m.data[key]
	if !ok {
		return nil, providers.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value
func (m *MemoryAdapter) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return m.failing
	}
	m.data[key] = append([]byte(nil), value...)
	m.notifyLocked(key)
	return nil
}

// Update applies fn while holding the store lock
func (m *MemoryAdapter) Update(ctx context.Context, key string, fn providers.UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return m.failing
	}

	var current []byte
	if value, ok := m.data[key]; ok {
		current = append([]byte(nil), value...)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	m.data[key] = append([]byte(nil), next...)
	m.notifyLocked(key)
	return nil
}

// Delete removes a value; only an existing key produces a notification
func (m *MemoryAdapter) Delete(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return false, m.failing
	}
	if _, ok := m.data[key]; !ok {
		return false, nil
	}
	delete(m.data, key)
	m.notifyLocked(key)
	return true, nil
}

// Keys lists keys starting with prefix in lexical order
func (m *MemoryAdapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return nil, m.failing
	}
	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch streams the keys written after the call until ctx is done
func (m *MemoryAdapter) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 64)

	m.mu.Lock()
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, ch)
		close(ch)
		m.mu.Unlock()
	}()

	return ch, nil
}

func (m *MemoryAdapter) notifyLocked(key string) {
	for ch := range m.watchers {
		select {
		case ch <- key:
		default:
		}
	}
}
