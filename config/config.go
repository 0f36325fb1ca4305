// Package config sizes and loads the tunables a Store's Options needs at
// construction time, the way optimize.Advise sizes a bus implementation
// from the running machine's core count instead of a hardcoded constant.
package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/aurorastate/redux/internal/json"
)

// AutoDetect returns a side-effect worker count sized from the machine's
// core count, the way optimize's async profile sizes its worker pool from
// p.Cores/2 (floored at 1) rather than hardcoding a single thread.
func AutoDetect() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// File is the on-disk shape of a store's tunable overrides.
type File struct {
	SideEffectThreads int    `json:"side_effect_threads"`
	GraceTimeMillis   int64  `json:"grace_time_ms"`
	LogLevel          string `json:"log_level"`
}

// Overrides is File resolved into the Go types Options expects.
type Overrides struct {
	SideEffectThreads int
	GraceTime         time.Duration
	LogLevel          slog.Level
}

// Load decodes raw as a File using the module's own JSON codec and
// resolves it into Overrides. A missing or zero SideEffectThreads falls
// back to AutoDetect.
func Load(raw []byte) (Overrides, error) {
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return Overrides{}, fmt.Errorf("config: %w", err)
	}

	threads := f.SideEffectThreads
	if threads <= 0 {
		threads = AutoDetect()
	}

	level := slog.LevelInfo
	if f.LogLevel != "" {
		if err := level.UnmarshalText([]byte(f.LogLevel)); err != nil {
			return Overrides{}, fmt.Errorf("config: log_level: %w", err)
		}
	}

	return Overrides{
		SideEffectThreads: threads,
		GraceTime:         time.Duration(f.GraceTimeMillis) * time.Millisecond,
		LogLevel:          level,
	}, nil
}
