// Package concurrency runs independent API calls with a bounded number of
// workers and joins their results.
package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxWorkers is the worker count used when callers pass a
// non-positive limit.
const DefaultMaxWorkers = 5

// ExecuteTasks calls fn once per element of args with at most maxWorkers
// calls in flight. Results are returned in the order of args.
//
// Every task runs to completion. If any failed, the error of the
// lowest-indexed failing task is returned and the results are discarded.
func ExecuteTasks[A, R any](
	ctx context.Context,
	fn func(context.Context, A) (R, error),
	args []A,
	maxWorkers int,
) ([]R, error) {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	results := make([]R, len(args))
	errs := make([]error, len(args))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for i, arg := range args {
		g.Go(func() error {
			results[i], errs[i] = fn(ctx, arg)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) <= size {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
