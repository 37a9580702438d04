package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/backend/internal/adapters/cache"
)

type recordingObserver struct {
	begun   []string
	aborted []string
}

func (o *recordingObserver) BeginWrite(key string) { o.begun = append(o.begun, key) }
func (o *recordingObserver) AbortWrite(key string) { o.aborted = append(o.aborted, key) }

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore() (*JSONStore, *cache.MemoryAdapter) {
	kv := cache.NewMemoryAdapter()
	return NewJSONStore(kv, zerolog.Nop()), kv
}

func TestJSONStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	ok := store.Save(ctx, "records", []record{{Name: "a", Count: 1}})
	require.True(t, ok)

	loaded := Load(ctx, store, "records", []record{})
	assert.Equal(t, []record{{Name: "a", Count: 1}}, loaded)
}

func TestJSONStore_LoadMissingReturnsDefault(t *testing.T) {
	store, _ := newTestStore()

	loaded := Load(context.Background(), store, "absent", []record{})
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func TestJSONStore_LoadCorruptReturnsDefault(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore()
	require.NoError(t, kv.Set(ctx, "records", []byte("{not json")))

	loaded := Load(ctx, store, "records", []record{{Name: "default"}})
	assert.Equal(t, []record{{Name: "default"}}, loaded)
}

func TestJSONStore_FailuresAreIsolated(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore()
	observer := &recordingObserver{}
	store.SetObserver(observer)
	require.True(t, store.Save(ctx, "records", []record{{Name: "a"}}))

	kv.FailWith(errors.New("quota exceeded"))

	assert.False(t, store.Save(ctx, "records", []record{}))
	assert.False(t, store.Remove(ctx, "records"))
	assert.Nil(t, store.Keys(ctx, ""))
	assert.Equal(t, []record{}, Load(ctx, store, "records", []record{}))
	assert.Equal(t, []string{"records", "records"}, observer.aborted)
}

func TestJSONStore_RemoveAbsentKeyWithdrawsWrite(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()
	observer := &recordingObserver{}
	store.SetObserver(observer)

	assert.True(t, store.Remove(ctx, "absent"))
	assert.Equal(t, []string{"absent"}, observer.begun)
	assert.Equal(t, []string{"absent"}, observer.aborted)

	require.True(t, store.Save(ctx, "records", []record{{Name: "a"}}))
	assert.True(t, store.Remove(ctx, "records"))
	assert.Equal(t, []string{"absent"}, observer.aborted)
}

func TestJSONStore_SaveUnencodable(t *testing.T) {
	store, _ := newTestStore()
	assert.False(t, store.Save(context.Background(), "bad", make(chan int)))
}

func TestJSONStore_Remove(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()
	require.True(t, store.Save(ctx, "records", []record{{Name: "a"}}))

	assert.True(t, store.Remove(ctx, "records"))
	assert.Empty(t, Load(ctx, store, "records", []record{}))
}

func TestMutate(t *testing.T) {
	ctx := context.Background()

	t.Run("applies fn to the stored value", func(t *testing.T) {
		store, _ := newTestStore()
		observer := &recordingObserver{}
		store.SetObserver(observer)

		for i := 0; i < 3; i++ {
			err := Mutate(ctx, store, "records", []record{}, func(current []record) ([]record, error) {
				return append(current, record{Count: len(current)}), nil
			})
			require.NoError(t, err)
		}

		loaded := Load(ctx, store, "records", []record{})
		assert.Equal(t, []record{{Count: 0}, {Count: 1}, {Count: 2}}, loaded)
		assert.Len(t, observer.begun, 3)
		assert.Empty(t, observer.aborted)
	})

	t.Run("fn error aborts without writing", func(t *testing.T) {
		store, _ := newTestStore()
		require.True(t, store.Save(ctx, "records", []record{{Name: "keep"}}))
		notFound := errors.New("not found")

		err := Mutate(ctx, store, "records", []record{}, func(current []record) ([]record, error) {
			return nil, notFound
		})

		assert.Same(t, notFound, err)
		assert.Equal(t, []record{{Name: "keep"}}, Load(ctx, store, "records", []record{}))
	})

	t.Run("storage failure returns ErrStorage", func(t *testing.T) {
		store, kv := newTestStore()
		kv.FailWith(errors.New("connection refused"))

		err := Mutate(ctx, store, "records", []record{}, func(current []record) ([]record, error) {
			return current, nil
		})

		assert.ErrorIs(t, err, ErrStorage)
	})
}
