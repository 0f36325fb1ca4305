// Package workerpool runs side-effect event handlers off the dispatch
// goroutine on a bounded pool of workers, backed by ants so the store
// never rolls its own goroutine management.
package workerpool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
)

// Task is a single (handler, event) unit of work, already resolved to a
// concrete callable by the registry — the pool itself knows nothing about
// weak references or event tags.
type Task struct {
	Run   func()
	Label string
}

// PanicHandler observes a task that panicked. It never re-panics; Submit's
// wrapper recovers the panic and calls it with the task's label and the
// recovered value.
type PanicHandler func(label string, recovered any)

// Pool is a bounded, joinable worker pool for side-effect handlers,
// backed by ants.Pool.
type Pool struct {
	inner   *ants.Pool
	logger  *slog.Logger
	onPanic PanicHandler
	group   errgroup.Group
}

// New creates a pool with size workers. size<=0 means ants.DefaultAntsPoolSize.
func New(size int, logger *slog.Logger, onPanic PanicHandler) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{logger: logger, onPanic: onPanic}
	opts := []ants.Option{
		ants.WithNonblocking(false),
		ants.WithPanicHandler(func(recovered any) {
			if p.onPanic != nil {
				p.onPanic("", recovered)
			}
			p.logger.Error("side-effect handler panicked", "recovered", recovered)
		}),
	}
	if size <= 0 {
		size = ants.DefaultAntsPoolSize
	}
	inner, err := ants.NewPool(size, opts...)
	if err != nil {
		return nil, fmt.Errorf("workerpool: %w", err)
	}
	p.inner = inner
	return p, nil
}

// Submit enqueues a task. It blocks only if the pool is saturated and
// non-blocking submission was disabled, matching ants' default backpressure
// behavior rather than dropping work.
func (p *Pool) Submit(task Task) error {
	return p.inner.Submit(func() {
		defer func() {
			if r := recover(); r != nil && p.onPanic != nil {
				p.onPanic(task.Label, r)
			}
		}()
		task.Run()
	})
}

// Running reports the number of workers currently executing a task.
func (p *Pool) Running() int { return p.inner.Running() }

// Join releases the pool and waits, bounded by ctx, for in-flight tasks to
// drain. It is safe to call once; a second call is a no-op.
func (p *Pool) Join(ctx context.Context) error {
	var g errgroup.Group
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		p.inner.Release()
		// Release does not wait for busy workers; poll until they exit.
		for p.inner.Running() > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Millisecond):
			}
		}
		return nil
	})
	select {
	case <-done:
		return g.Wait()
	case <-ctx.Done():
		return fmt.Errorf("workerpool: join: %w", ctx.Err())
	}
}
