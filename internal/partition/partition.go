// Package partition splits port ranges into contiguous chunks and runs one
// goroutine per chunk. Both scan tiers are built on it.
package partition

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tierscan/internal/models"
)

// ErrMissingResult means a chunk finished without handing back its value.
var ErrMissingResult = errors.New("chunk finished without a result")

// Split cuts r into at most n contiguous chunks. The first Len(r) mod n chunks
// get one extra port, so every port lands in exactly one chunk. Empty chunks
// are never returned.
func Split(r models.PortRange, n int) []models.PortRange {
	total := r.Len()
	if n < 1 || total == 0 {
		return nil
	}
	if n > total {
		n = total
	}

	size, rem := total/n, total%n
	chunks := make([]models.PortRange, 0, n)
	low := int(r.Low)
	for i := 0; i < n; i++ {
		high := low + size
		if i < rem {
			high++
		}
		chunks = append(chunks, models.PortRange{Low: uint16(low), High: uint16(high)})
		low = high
	}
	return chunks
}

// Func is the work done for one chunk.
type Func[T any] func(ctx context.Context, index int, chunk models.PortRange) (T, error)

// Run splits r into n chunks and calls fn for each of them concurrently. It
// blocks until every call returns, then collects the values in chunk order.
// The first error cancels the context passed to the other calls.
func Run[T any](ctx context.Context, r models.PortRange, n int, fn Func[T]) ([]T, error) {
	chunks := Split(r, n)
	if len(chunks) == 0 {
		return nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([]chan T, len(chunks))
	for i, chunk := range chunks {
		// One buffered slot per chunk; the sender never blocks.
		results[i] = make(chan T, 1)
		i, chunk := i, chunk
		g.Go(func() error {
			v, err := fn(gctx, i, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d %s: %w", i, chunk, err)
			}
			results[i] <- v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return collect(chunks, results)
}

// collect takes one value from each chunk's channel without blocking. It is
// only called after every sender has returned, so an empty channel is a bug.
func collect[T any](chunks []models.PortRange, results []chan T) ([]T, error) {
	out := make([]T, 0, len(chunks))
	for i, ch := range results {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return nil, fmt.Errorf("chunk %d %s: %w", i, chunks[i], ErrMissingResult)
		}
	}
	return out, nil
}
