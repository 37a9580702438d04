package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/providers"
)

// ErrStorage is returned by Mutate when the underlying store failed.
var ErrStorage = errors.New("storage unavailable")

// WriteObserver is told about a write before it reaches the store, and again
// when that write failed.
type WriteObserver interface {
	BeginWrite(key string)
	AbortWrite(key string)
}

// JSONStore persists JSON-encoded values in a KVStore. Failures are logged
// and reported through return values, never as panics.
type JSONStore struct {
	kv       providers.KVStore
	logger   zerolog.Logger
	observer WriteObserver
}

// NewJSONStore creates a JSON store over kv
func NewJSONStore(kv providers.KVStore, logger zerolog.Logger) *JSONStore {
	return &JSONStore{
		kv:     kv,
		logger: logger.With().Str("component", "json_store").Logger(),
	}
}

// SetObserver installs the write observer. It must be called before the store is shared.
func (s *JSONStore) SetObserver(observer WriteObserver) {
	s.observer = observer
}

func (s *JSONStore) beginWrite(key string) {
	if s.observer != nil {
		s.observer.BeginWrite(key)
	}
}

func (s *JSONStore) abortWrite(key string) {
	if s.observer != nil {
		s.observer.AbortWrite(key)
	}
}

// Save serializes value and writes it under key. It reports success.
func (s *JSONStore) Save(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to encode value")
		return false
	}

	s.beginWrite(key)
	if err := s.kv.Set(ctx, key, data); err != nil {
		s.abortWrite(key)
		s.logger.Error().Err(err).Str("key", key).Msg("failed to save value")
		return false
	}
	return true
}

// Remove deletes key. It reports success; removing an absent key succeeds.
func (s *JSONStore) Remove(ctx context.Context, key string) bool {
	s.beginWrite(key)
	removed, err := s.kv.Delete(ctx, key)
	if err != nil {
		s.abortWrite(key)
		s.logger.Error().Err(err).Str("key", key).Msg("failed to remove value")
		return false
	}
	if !removed {
		// no change notification will arrive to consume the marker
		s.abortWrite(key)
	}
	return true
}

// Keys lists stored keys starting with prefix; nil on failure.
func (s *JSONStore) Keys(ctx context.Context, prefix string) []string {
	keys, err := s.kv.Keys(ctx, prefix)
	if err != nil {
		s.logger.Error().Err(err).Str("prefix", prefix).Msg("failed to list keys")
		return nil
	}
	return keys
}

// Load reads and decodes the value under key. A missing key, a read failure
// or undecodable data yield def; only the last two are logged.
func Load[T any](ctx context.Context, s *JSONStore, key string, def T) T {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, providers.ErrKeyNotFound) {
		return def
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to load value")
		return def
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to decode value")
		return def
	}
	return value
}

// Mutate loads the value under key (def when absent or undecodable), applies
// fn and stores the result atomically with respect to other writers of key.
// An error from fn aborts the write and is returned unchanged.
func Mutate[T any](ctx context.Context, s *JSONStore, key string, def T, fn func(T) (T, error)) error {
	var fnErr error

	s.beginWrite(key)
	err := s.kv.Update(ctx, key, func(current []byte) ([]byte, error) {
		value := def
		if current != nil {
			var decoded T
			if err := json.Unmarshal(current, &decoded); err != nil {
				s.logger.Error().Err(err).Str("key", key).Msg("failed to decode value, starting from default")
			} else {
				value = decoded
			}
		}

		next, err := fn(value)
		if err != nil {
			fnErr = err
			return nil, err
		}
		return json.Marshal(next)
	})
	if err == nil {
		return nil
	}

	s.abortWrite(key)
	if fnErr != nil && errors.Is(err, fnErr) {
		return fnErr
	}
	s.logger.Error().Err(err).Str("key", key).Msg("failed to update value")
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
