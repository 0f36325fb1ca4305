// Package recoverer converts a panic inside an event handler into an
// error. The worker pool already recovers panics that escape every
// middleware, so this is for callers who want the panic surfaced as a
// HandlerFailure-compatible error instead of just a logged recovery.
package recoverer

import (
	"fmt"

	"github.com/aurorastate/redux"
)

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// New returns a HandlerMiddleware that recovers a panic from h and
// reports it as a *PanicError.
func New() redux.HandlerMiddleware {
	return func(h redux.Handler) redux.Handler {
		return func(e redux.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Value: r}
				}
			}()
			return h(e)
		}
	}
}
