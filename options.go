package redux

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/aurorastate/redux/workerpool"
)

// TaskCreator runs fn asynchronously, the hook the grace-period waiter uses
// to spawn work instead of calling go directly, mirroring the Python
// store's task_creator option. Autorun bodies run synchronously and do not
// go through it.
type TaskCreator func(ctx context.Context, fn func())

func defaultTaskCreator(ctx context.Context, fn func()) {
	go fn()
}

// Scheduler runs callback roughly every interval until the returned stop
// func is called, replacing the store's default of draining inline from
// Dispatch/DispatchEvent. An interval of 0 means "run callback once,
// immediately" rather than on a recurring timer; New uses that shape to
// schedule the auto-init action as a one-shot when a Scheduler is set.
type Scheduler func(callback func(), interval time.Duration) (stop func())

// defaultSchedulerInterval is used when Options.Scheduler is set but
// SchedulerInterval is left at its zero value.
const defaultSchedulerInterval = 50 * time.Millisecond

// SideEffectRunnerFactory builds the worker pool backing side-effect event
// handlers. size is Options.SideEffectThreads, already resolved through
// config.AutoDetect if it was left <=0. Defaults to workerpool.New.
type SideEffectRunnerFactory func(size int, logger *slog.Logger, onPanic workerpool.PanicHandler) (*workerpool.Pool, error)

// Options configures a Store. The zero value runs with no auto-init, a
// side-effect worker count sized by config.AutoDetect and no grace period;
// use DefaultOptions for the more commonly wanted defaults.
type Options[S any] struct {
	// AutoInit dispatches InitAction as soon as the store is constructed.
	AutoInit bool

	// SideEffectThreads sizes the worker pool backing event handlers.
	// <=0 is resolved by config.AutoDetect at store construction.
	SideEffectThreads int

	// GraceTime delays FinishEvent delivery after FinishAction settles,
	// giving in-flight listeners and handlers a window to finish.
	GraceTime time.Duration

	// OnFinish is called exactly once, after the grace period and after
	// every listener has been cleared, from the goroutine that drains the
	// FinishEvent notification.
	OnFinish func()

	ActionMiddlewares []ActionMiddleware
	EventMiddlewares  []EventMiddleware

	// Logger receives structured dispatch-lifecycle events. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Tracer, if set, wraps reducer application and handler dispatch in
	// spans named after the action/event's dynamic type.
	Tracer trace.Tracer

	// TaskCreator overrides how the finish waiter spawns its asynchronous
	// work. Defaults to a bare `go fn()`.
	TaskCreator TaskCreator

	// Scheduler, if set, replaces inline draining: Dispatch and
	// DispatchEvent only enqueue, and the queue is drained from
	// Scheduler's periodic callback instead. Run still always drains
	// inline, for callers that want an explicit manual flush.
	Scheduler Scheduler

	// SchedulerInterval is the period passed to Scheduler for the
	// recurring drain callback. Defaults to 50ms when Scheduler is set and
	// this is left at zero.
	SchedulerInterval time.Duration

	// SideEffectRunner builds the worker pool backing event handlers.
	// Defaults to workerpool.New.
	SideEffectRunner SideEffectRunnerFactory
}

// DefaultOptions returns Options with AutoInit enabled and a single
// side-effect worker, matching the Python store's CreateStoreOptions
// defaults.
func DefaultOptions[S any]() Options[S] {
	return Options[S]{AutoInit: true, SideEffectThreads: 1}
}

func (o Options[S]) withDefaults() Options[S] {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.TaskCreator == nil {
		o.TaskCreator = defaultTaskCreator
	}
	if o.Scheduler != nil && o.SchedulerInterval <= 0 {
		o.SchedulerInterval = defaultSchedulerInterval
	}
	if o.SideEffectRunner == nil {
		o.SideEffectRunner = workerpool.New
	}
	return o
}
