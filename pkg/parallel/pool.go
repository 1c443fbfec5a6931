// Package parallel runs independent jobs on a bounded set of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PoolConfig configures the worker pool behavior.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8)
	MaxWorkers int

	// Timeout bounds the whole run. 0 means no timeout.
	Timeout time.Duration
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxWorkers: max(2, min(runtime.NumCPU(), 8))}
}

// WithWorkers returns a new config with the specified number of workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a new config with the specified timeout.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// Result is the outcome of one job.
type Result[T any, R any] struct {
	Input    T
	Value    R
	Err      error
	Duration time.Duration
}

// Map applies fn to every input on up to MaxWorkers goroutines. Results come back
// in input order. Inputs not started before the context ends carry its error.
func Map[T any, R any](ctx context.Context, cfg PoolConfig, inputs []T, fn func(ctx context.Context, input T) (R, error)) []Result[T, R] {
	if len(inputs) == 0 {
		return nil
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	results := make([]Result[T, R], len(inputs))
	for i, in := range inputs {
		results[i].Input = in
	}

	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(cfg.MaxWorkers, len(inputs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range next {
				start := time.Now()
				v, err := fn(ctx, inputs[idx])
				results[idx].Value = v
				results[idx].Err = err
				results[idx].Duration = time.Since(start)
			}
		}()
	}

	sent := 0
feed:
	for ; sent < len(inputs); sent++ {
		select {
		case <-ctx.Done():
			break feed
		case next <- sent:
		}
	}
	close(next)
	wg.Wait()

	for i := sent; i < len(inputs); i++ {
		results[i].Err = ctx.Err()
	}
	return results
}

// FirstError returns the first failed result's error in input order.
func FirstError[T any, R any](results []Result[T, R]) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
