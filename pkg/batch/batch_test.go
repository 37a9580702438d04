package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	items := make([]int, 1201)
	for i := range items {
		items[i] = i
	}

	chunks := Chunk(items, 0)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)
	assert.Len(t, chunks[2], 201)
	assert.Equal(t, 1200, chunks[2][200])

	assert.Len(t, Chunk(items, 1000), 3, "sizes above MaxSize are clamped")
	assert.Len(t, Chunk(items[:10], 4), 3)
	assert.Nil(t, Chunk([]int{}, 10))
}

func TestWrite(t *testing.T) {
	items := make([]string, 1001)

	t.Run("commits every chunk", func(t *testing.T) {
		var sizes []int
		n, err := Write(context.Background(), items, func(ctx context.Context, chunk []string) error {
			sizes = append(sizes, len(chunk))
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1001, n)
		assert.Equal(t, []int{500, 500, 1}, sizes)
	})

	t.Run("stops on first failure", func(t *testing.T) {
		calls := 0
		n, err := Write(context.Background(), items, func(ctx context.Context, chunk []string) error {
			calls++
			if calls == 2 {
				return errors.New("commit failed")
			}
			return nil
		})
		assert.Error(t, err)
		assert.Equal(t, 500, n)
		assert.Equal(t, 2, calls)
	})
}
