package fetch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Runtime supplies the concurrent composition the interpreter runs on.
// Go runs tasks as a parallel product: it waits for every task to finish
// and returns the first error that occurred. It must not kill siblings on
// failure; callers wanting fail-fast race at a higher level.
type Runtime interface {
	Go(ctx context.Context, tasks ...func(context.Context) error) error
}

// GoroutineRuntime is the default Runtime: one goroutine per task,
// unbounded.
type GoroutineRuntime struct{}

func (GoroutineRuntime) Go(ctx context.Context, tasks ...func(context.Context) error) error {
	if len(tasks) == 1 {
		return tasks[0](ctx)
	}

	var g errgroup.Group
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return task(ctx)
		})
	}
	return g.Wait()
}

// PoolRuntime bounds how many tasks run at once, for callers whose
// sources cannot absorb one in-flight call per branch. It keeps hit/miss
// style counters for observability.
type PoolRuntime struct {
	limit   int
	metrics RuntimeMetrics
}

// RuntimeMetrics tracks task counts for a PoolRuntime.
type RuntimeMetrics struct {
	mu        sync.Mutex
	started   uint64
	completed uint64
	failed    uint64
}

// NewPoolRuntime creates a runtime running at most limit tasks at once.
// A non-positive limit panics; use GoroutineRuntime for unbounded runs.
func NewPoolRuntime(limit int) *PoolRuntime {
	if limit <= 0 {
		panic("fetch: pool runtime limit must be positive")
	}
	return &PoolRuntime{limit: limit}
}

func (p *PoolRuntime) Go(ctx context.Context, tasks ...func(context.Context) error) error {
	var g errgroup.Group
	g.SetLimit(p.limit)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			p.metrics.mu.Lock()
			p.metrics.started++
			p.metrics.mu.Unlock()

			err := task(ctx)

			p.metrics.mu.Lock()
			if err != nil {
				p.metrics.failed++
			} else {
				p.metrics.completed++
			}
			p.metrics.mu.Unlock()
			return err
		})
	}
	return g.Wait()
}

// Metrics returns a snapshot of the pool's counters as started,
// completed, failed.
func (p *PoolRuntime) Metrics() (started, completed, failed uint64) {
	p.metrics.mu.Lock()
	defer p.metrics.mu.Unlock()
	return p.metrics.started, p.metrics.completed, p.metrics.failed
}
