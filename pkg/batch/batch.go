// Package batch splits bulk writes into commit-sized chunks.
package batch

import "context"

// MaxSize is the largest number of documents written in one committed batch.
const MaxSize = 500

// Chunk splits items into consecutive slices of at most size elements.
// A size outside (0, MaxSize] is clamped to MaxSize.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || size > MaxSize {
		size = MaxSize
	}
	if len(items) == 0 {
		return nil
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// Write commits items through commit, one chunk of at most MaxSize at a time.
// It stops at the first failed commit and reports how many items were committed.
func Write[T any](ctx context.Context, items []T, commit func(ctx context.Context, chunk []T) error) (int, error) {
	written := 0
	for _, chunk := range Chunk(items, MaxSize) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := commit(ctx, chunk); err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}
