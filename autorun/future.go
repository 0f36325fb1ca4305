package autorun

import (
	"context"
	"fmt"
	"sync"
)

// ErrAbandoned is returned by Wait on a Future that was replaced by a
// newer one before it ever resolved.
var ErrAbandoned = fmt.Errorf("autorun: future abandoned before it resolved")

// Future is an await-once result slot, the Go analogue of AwaitableWrapper
// tracking whether a body's asynchronous result has been awaited yet.
// Multiple Wait callers all observe the same resolution.
type Future[T any] struct {
	once   sync.Once
	done   chan struct{}
	cancel context.CancelFunc
	val    T
	err    error
}

// NewFuture returns a Future bound to ctx; cancelling ctx before Resolve
// runs causes Wait to return ctx.Err().
func NewFuture[T any](ctx context.Context) (*Future[T], context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{done: make(chan struct{}), cancel: cancel}
	context.AfterFunc(ctx, func() {
		f.once.Do(func() {
			f.err = ctx.Err()
			close(f.done)
		})
	})
	return f, ctx
}

// Resolve runs fn exactly once across however many goroutines call
// Resolve concurrently; only the first call's fn executes.
func (f *Future[T]) Resolve(fn func() (T, error)) {
	f.once.Do(func() {
		f.val, f.err = fn()
		close(f.done)
	})
}

// Abandon marks the future as never going to resolve, cancelling its
// context and waking any waiters with ErrAbandoned. It is a no-op if
// Resolve has already run or already won the race.
func (f *Future[T]) Abandon() {
	f.once.Do(func() {
		f.err = ErrAbandoned
		if f.cancel != nil {
			f.cancel()
		}
		close(f.done)
	})
}

// Wait blocks until Resolve or Abandon runs, returning the resolved value
// and error. Safe to call from multiple goroutines and more than once.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}
