// Package timeout bounds how long an event handler's caller waits for it.
// A Handler has no context parameter to cancel, so the handler keeps
// running in its own goroutine past the deadline; only the caller stops
// waiting.
package timeout

import (
	"context"
	"time"

	"github.com/aurorastate/redux"
)

// New returns a HandlerMiddleware that waits at most d for h to return,
// reporting context.DeadlineExceeded if it doesn't.
func New(d time.Duration) redux.HandlerMiddleware {
	return func(h redux.Handler) redux.Handler {
		return func(e redux.Event) error {
			done := make(chan error, 1)
			go func() { done <- h(e) }()

			timer := time.NewTimer(d)
			defer timer.Stop()

			select {
			case err := <-done:
				return err
			case <-timer.C:
				return context.DeadlineExceeded
			}
		}
	}
}
