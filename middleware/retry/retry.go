// Package retry retries a failing event handler with exponential backoff.
package retry

import (
	"time"

	"github.com/aurorastate/redux"
)

// Config configures the retry middleware.
type Config struct {
	// MaxRetries caps retry attempts beyond the first call. Defaults to 3.
	MaxRetries int

	// InitialInterval is the delay before the first retry. Defaults to
	// 100ms.
	InitialInterval time.Duration

	// MaxInterval caps the exponential backoff. Defaults to 10s.
	MaxInterval time.Duration

	// Multiplier scales the interval after each attempt. Defaults to 2.0.
	Multiplier float64

	// ShouldRetry decides whether err warrants another attempt. nil
	// retries every error.
	ShouldRetry func(err error) bool
}

func (c *Config) defaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 10 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
}

// New returns a HandlerMiddleware retrying h on error per cfg.
func New(cfg Config) redux.HandlerMiddleware {
	cfg.defaults()

	return func(h redux.Handler) redux.Handler {
		return func(e redux.Event) error {
			interval := cfg.InitialInterval

			for attempt := 0; ; attempt++ {
				err := h(e)
				if err == nil {
					return nil
				}

				if attempt >= cfg.MaxRetries {
					return err
				}
				if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err) {
					return err
				}

				time.Sleep(interval)

				interval = time.Duration(float64(interval) * cfg.Multiplier)
				if interval > cfg.MaxInterval {
					interval = cfg.MaxInterval
				}
			}
		}
	}
}
