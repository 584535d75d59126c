package concurrency

import (
	"context"
	"sync"
)

// ParallelOptions configures parallel processing.
type ParallelOptions struct {
	// MaxWorkers is the maximum number of concurrent workers.
	MaxWorkers int
}

// DefaultOptions returns the default parallel processing options.
func DefaultOptions() ParallelOptions {
	return ParallelOptions{
		MaxWorkers: 10,
	}
}

// ProcessParallel runs itemFunc over items using a bounded worker pool.
// Results come back in the same order as the input items; errors are
// collected without aborting the remaining work.
func ProcessParallel[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) (R, error),
) ([]R, []error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	if maxWorkers > len(items) {
		maxWorkers = len(items)
	}

	jobs := make(chan int, len(items))
	results := make(chan struct {
		index  int
		result R
		err    error
	}, len(items))

	var wg sync.WaitGroup
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jobIndex := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
					result, err := itemFunc(ctx, jobIndex, items[jobIndex])
					results <- struct {
						index  int
						result R
						err    error
					}{jobIndex, result, err}
				}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	resultList := make([]R, len(items))
	var errors []error

	for i := 0; i < len(items); i++ {
		res, ok := <-results
		if !ok {
			break
		}
		if res.err != nil {
			errors = append(errors, res.err)
		}
		resultList[res.index] = res.result
	}

	return resultList, errors
}

// ForEach runs itemFunc over items in parallel without collecting results.
// Useful when only side effects matter.
func ForEach[T any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) error,
) []error {
	if len(items) == 0 {
		return nil
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	if maxWorkers > len(items) {
		maxWorkers = len(items)
	}

	jobs := make(chan int, len(items))
	errCh := make(chan error, len(items))

	var wg sync.WaitGroup
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jobIndex := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
					if err := itemFunc(ctx, jobIndex, items[jobIndex]); err != nil {
						errCh <- err
					}
				}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(errCh)

	var errorList []error
	for err := range errCh {
		errorList = append(errorList, err)
	}

	return errorList
}
