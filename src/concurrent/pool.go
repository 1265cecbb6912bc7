// Package concurrent provides small helpers for bounded parallel work.
package concurrent

import (
	"context"
	"sync"
)

// ParallelMap runs fn over items with at most maxConcurrency calls in
// flight and returns the results in input order. The first error (by
// input position) is returned after all started work has finished.
func ParallelMap[T, R any](ctx context.Context, items []T, fn func(T) (R, error), maxConcurrency int) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	if maxConcurrency == 1 {
		return sequentialMap(ctx, items, fn)
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrency)
	for i, item := range items {
		wg.Add(1)
		go func(idx int, val T) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
			case sem <- struct{}{}:
				defer func() { <-sem }()
				results[idx], errs[idx] = fn(val)
			}
		}(i, item)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// sequentialMap is the single-worker path: no goroutines, same contract.
func sequentialMap[T, R any](ctx context.Context, items []T, fn func(T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := fn(item)
		if err != nil {
			return results, err
		}
		results[i] = r
	}
	return results, nil
}
