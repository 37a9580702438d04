package providers

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound is returned by KVStore.Get for absent keys.
	ErrKeyNotFound = errors.New("key not found")

	// ErrConflict is returned by KVStore.Update when concurrent writers kept
	// invalidating the transaction.
	ErrConflict = errors.New("concurrent update conflict")
)

// UpdateFunc receives the current value (nil when the key is absent) and
// returns the value to store. Returning an error aborts the update.
type UpdateFunc func(current []byte) ([]byte, error)

// KVStore is the durable key-value primitive behind the local data layer.
// Each value is written atomically per key.
type KVStore interface {
	// Get retrieves a value; ErrKeyNotFound when absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value without expiration
	Set(ctx context.Context, key string, value []byte) error

	// Update performs a compare-and-swap read-modify-write on one key
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Delete removes a value and reports whether the key existed
	Delete(ctx context.Context, key string) (bool, error)

	// Keys lists the keys starting with prefix
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// StorageWatcher delivers the storage primitive's native change notifications.
// Each received value is the key that changed.
type StorageWatcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}
