package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/backend/internal/domain/providers"
)

func TestMemoryAdapter_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAdapter()

	_, err := store.Get(ctx, "appointments")
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "appointments", []byte("[]")))
	value, err := store.Get(ctx, "appointments")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value))

	removed, err := store.Delete(ctx, "appointments")
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = store.Get(ctx, "appointments")
	assert.ErrorIs(t, err, providers.ErrKeyNotFound)

	removed, err = store.Delete(ctx, "appointments")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryAdapter_Update(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAdapter()

	err := store.Update(ctx, "counter", func(current []byte) ([]byte, error) {
		assert.Nil(t, current)
		return []byte("1"), nil
	})
	require.NoError(t, err)

	abort := errors.New("abort")
	err = store.Update(ctx, "counter", func(current []byte) ([]byte, error) {
		assert.Equal(t, "1", string(current))
		return nil, abort
	})
	assert.ErrorIs(t, err, abort)

	value, _ := store.Get(ctx, "counter")
	assert.Equal(t, "1", string(value), "aborted update leaves value untouched")
}

func TestMemoryAdapter_Keys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAdapter()
	require.NoError(t, store.Set(ctx, "user_preferences_b", []byte("{}")))
	require.NoError(t, store.Set(ctx, "user_preferences_a", []byte("{}")))
	require.NoError(t, store.Set(ctx, "appointments", []byte("[]")))

	keys, err := store.Keys(ctx, "user_preferences_")
	require.NoError(t, err)
	assert.Equal(t, []string{"user_preferences_a", "user_preferences_b"}, keys)
}

func TestMemoryAdapter_FailWith(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAdapter()
	boom := errors.New("disk full")
	store.FailWith(boom)

	assert.ErrorIs(t, store.Set(ctx, "k", []byte("v")), boom)
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, boom)

	store.FailWith(nil)
	assert.NoError(t, store.Set(ctx, "k", []byte("v")))
}

func TestMemoryAdapter_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemoryAdapter()

	keys, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "doctor_profiles", []byte("[]")))

	select {
	case key := <-keys:
		assert.Equal(t, "doctor_profiles", key)
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-keys
		return !open
	}, time.Second, 10*time.Millisecond)
}
