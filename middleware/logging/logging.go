// Package logging times and logs side-effect event handler execution.
package logging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aurorastate/redux"
)

// New returns a HandlerMiddleware that logs each call's duration and
// outcome.
func New(logger *slog.Logger) redux.HandlerMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(h redux.Handler) redux.Handler {
		return func(e redux.Event) error {
			start := time.Now()
			err := h(e)
			duration := time.Since(start)

			attrs := []any{"event", fmt.Sprintf("%T", e), "duration", duration}
			if err != nil {
				logger.Error("event handler failed", append(attrs, "error", err)...)
			} else {
				logger.Debug("event handled", attrs...)
			}
			return err
		}
	}
}
