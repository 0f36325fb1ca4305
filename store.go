// Package redux is a Redux-shaped, in-process state container: a
// single-writer dispatch engine around a user reducer, a listener/handler
// registry supporting weak holding, a worker pool for side effects, and an
// autorun/view layer for memoized derived values (see the autorun
// package).
package redux

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/aurorastate/redux/config"
	"github.com/aurorastate/redux/internal/counter"
	"github.com/aurorastate/redux/registry"
	"github.com/aurorastate/redux/snapshot"
	"github.com/aurorastate/redux/workerpool"
)

// Store is the façade applications hold: Dispatch actions into it,
// Subscribe to state changes, SubscribeEvent to side-effect notifications.
type Store[S any] struct {
	reducer Reducer[S]
	opts    Options[S]

	stateMu sync.RWMutex
	state   *S

	actionQ queue[Action]
	eventQ  queue[Event]
	draining sync.Mutex

	listeners *registry.Listeners[S]
	handlers  *registry.Handlers
	pool      *workerpool.Pool

	actionMw *middlewareList[ActionMiddleware]
	eventMw  *middlewareList[EventMiddleware]

	pending sync.WaitGroup

	dispatchCount *counter.Sharded

	finishScheduled sync.Once
	finishNotified  sync.Once
	finishCh        chan struct{}

	schedulerStop func()

	logger *slog.Logger
}

// New constructs a Store around reducer. If opts.AutoInit is set,
// InitAction is dispatched before New returns; with a Scheduler configured
// it is only enqueued, and applied when the scheduler runs its one-shot
// callback.
func New[S any](reducer Reducer[S], opts Options[S]) (*Store[S], error) {
	opts = opts.withDefaults()

	threads := opts.SideEffectThreads
	if threads <= 0 {
		threads = config.AutoDetect()
	}

	s := &Store[S]{
		reducer:       reducer,
		opts:          opts,
		listeners:     registry.NewListeners[S](),
		handlers:      registry.NewHandlers(),
		actionMw:      newMiddlewareList(opts.ActionMiddlewares),
		eventMw:       newMiddlewareList(opts.EventMiddlewares),
		finishCh:      make(chan struct{}),
		logger:        opts.Logger,
		dispatchCount: counter.New(),
	}

	pool, err := opts.SideEffectRunner(threads, opts.Logger, func(label string, recovered any) {
		s.logger.Error("side-effect handler panicked", "label", label, "recovered", recovered)
	})
	if err != nil {
		return nil, fmt.Errorf("redux: %w", err)
	}
	s.pool = pool

	if opts.Scheduler != nil {
		s.schedulerStop = opts.Scheduler(func() { s.drain() }, opts.SchedulerInterval)
	}

	if opts.AutoInit {
		if opts.Scheduler != nil {
			if err := s.scheduleInitAction(); err != nil {
				return nil, err
			}
		} else if err := s.Dispatch(InitAction{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// scheduleInitAction runs InitAction through the middleware chain and
// enqueues it, then asks the scheduler to drain it once, immediately,
// instead of draining inline the way Dispatch would without a Scheduler.
func (s *Store[S]) scheduleInitAction() error {
	a, keep, err := s.applyActionMiddlewares(InitAction{})
	if err != nil {
		return err
	}
	if !keep {
		return nil
	}
	s.actionQ.push(a)
	s.opts.Scheduler(func() { s.drain() }, 0)
	return nil
}

// Dispatch runs action through the action middleware chain, queues it, and
// drains the queue on the calling goroutine if no other goroutine is
// already draining. If Options.Scheduler is set, draining is left to the
// scheduler's periodic callback instead.
func (s *Store[S]) Dispatch(action Action) error {
	a, keep, err := s.applyActionMiddlewares(action)
	if err != nil {
		return err
	}
	if !keep {
		return nil
	}
	s.actionQ.push(a)
	return s.drainUnlessScheduled()
}

// DispatchEvent queues event for side-effect delivery, draining inline
// like Dispatch unless a Scheduler is configured. Most events are produced
// as part of a Composite reducer result instead of being dispatched
// directly.
func (s *Store[S]) DispatchEvent(event Event) error {
	s.eventQ.push(event)
	return s.drainUnlessScheduled()
}

// drainUnlessScheduled drains inline, unless a Scheduler is configured, in
// which case draining is left to its periodic callback.
func (s *Store[S]) drainUnlessScheduled() error {
	if s.opts.Scheduler != nil {
		return nil
	}
	return s.drain()
}

// Run flushes any queued actions or events without adding new ones, useful
// after constructing a store with AutoInit disabled.
func (s *Store[S]) Run() error {
	return s.drain()
}

// drain is the single-writer loop: acquire the non-reentrant drain lock if
// free, process both queues to exhaustion, release, then recheck once more
// in case something was pushed in the gap between the last empty check and
// the unlock.
func (s *Store[S]) drain() error {
	for {
		if !s.draining.TryLock() {
			return nil
		}
		err := s.drainLocked()
		s.draining.Unlock()
		if err != nil {
			return err
		}
		if s.actionQ.len() == 0 && s.eventQ.len() == 0 {
			return nil
		}
	}
}

func (s *Store[S]) drainLocked() error {
	for {
		actions := s.actionQ.drain()
		events := s.eventQ.drain()
		if len(actions) == 0 && len(events) == 0 {
			return nil
		}
		for _, a := range actions {
			if err := s.applyAction(a); err != nil {
				return err
			}
		}
		for _, e := range events {
			s.dispatchEventToHandlers(e)
		}
	}
}

func (s *Store[S]) applyAction(a Action) (err error) {
	ctx, span := s.startSpan(context.Background(), "reduce", a)
	defer func() { endSpan(span, err) }()

	s.dispatchCount.Add(1)

	result, err := s.reduce(a)
	if err != nil {
		s.logger.Error("reducer failed", "action", fmt.Sprintf("%T", a), "error", err)
		return err
	}

	state := result.State
	s.stateMu.Lock()
	s.state = &state
	s.stateMu.Unlock()

	s.logger.Debug("action applied", "action", fmt.Sprintf("%T", a))

	if err := s.listeners.NotifyAll(state); err != nil {
		wrapped := &ListenerFailure{Cause: err}
		s.logger.Error("listener failed", "error", wrapped)
		return wrapped
	}

	if len(result.Actions) > 0 {
		s.actionQ.pushAll(result.Actions)
	}
	if len(result.Events) > 0 {
		s.eventQ.pushAll(result.Events)
	}

	if _, ok := a.(FinishAction); ok {
		s.scheduleFinish(ctx)
	}
	return nil
}

func (s *Store[S]) reduce(a Action) (result Result[S], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ReducerFailure{Action: a, Value: r}
		}
	}()
	s.stateMu.RLock()
	cur := s.state
	s.stateMu.RUnlock()
	result = s.reducer(cur, a)
	return result, nil
}

func (s *Store[S]) applyActionMiddlewares(a Action) (Action, bool, error) {
	for _, mw := range s.actionMw.snapshot() {
		var (
			next     Action
			keep     bool
			panicked any
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					panicked = r
				}
			}()
			next, keep = mw(a)
		}()
		if panicked != nil {
			return nil, false, &MiddlewareFailure{Value: panicked}
		}
		if !keep {
			return nil, false, nil
		}
		a = next
	}
	return a, true, nil
}

func (s *Store[S]) applyEventMiddlewares(e Event) (Event, bool, error) {
	for _, mw := range s.eventMw.snapshot() {
		var (
			next     Event
			keep     bool
			panicked any
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					panicked = r
				}
			}()
			next, keep = mw(e)
		}()
		if panicked != nil {
			return nil, false, &MiddlewareFailure{Value: panicked}
		}
		if !keep {
			return nil, false, nil
		}
		e = next
	}
	return e, true, nil
}

func (s *Store[S]) dispatchEventToHandlers(e Event) {
	e2, keep, err := s.applyEventMiddlewares(e)
	if err != nil {
		s.logger.Error("event middleware failed", "error", err)
		return
	}
	if !keep {
		return
	}

	_, span := s.startSpan(context.Background(), "handle", e2)
	defer span.End()

	tag := eventTag(e2)
	tasks := s.handlers.Snapshot(tag, e2)
	for _, t := range tasks {
		run := t.Run
		s.pending.Add(1)
		label := tag.String()
		if err := s.pool.Submit(workerpool.Task{
			Label: label,
			Run: func() {
				defer s.pending.Done()
				if err := run(); err != nil {
					s.logger.Error("handler failed", "event", label, "error", &HandlerFailure{Event: e2, Value: err})
				}
			},
		}); err != nil {
			s.pending.Done()
			s.logger.Error("submit handler task failed", "event", label, "error", err)
		}
	}

	if _, ok := e2.(FinishEvent); ok {
		s.notifyFinished(context.Background())
	}
}

// notifyFinished joins the worker pool, clears the listener and handler
// registries, and invokes OnFinish exactly once. ctx bounds the pool join;
// a caller wanting an unbounded wait should pass context.Background().
func (s *Store[S]) notifyFinished(ctx context.Context) {
	s.finishNotified.Do(func() {
		if s.schedulerStop != nil {
			s.schedulerStop()
		}
		if err := s.WaitForEventHandlers(ctx); err != nil {
			s.logger.Error("waiting for event handlers failed during finish", "error", err)
		}
		if err := s.pool.Join(ctx); err != nil {
			s.logger.Error("worker pool join failed during finish", "error", err)
		}
		s.listeners.Clear()
		s.handlers.Clear()
		if s.opts.OnFinish != nil {
			s.opts.OnFinish()
		}
		close(s.finishCh)
	})
}

func (s *Store[S]) scheduleFinish(ctx context.Context) {
	s.finishScheduled.Do(func() {
		run := func() {
			if s.opts.GraceTime > 0 {
				time.Sleep(s.opts.GraceTime)
			}
			s.eventQ.push(FinishEvent{})
			s.drain()
		}
		s.opts.TaskCreator(ctx, run)
	})
}

// State returns the current state, or the zero value and false if no
// action has been applied yet.
func (s *Store[S]) State() (S, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.state == nil {
		var zero S
		return zero, false
	}
	return *s.state, true
}

// DispatchCount reports how many actions have reached the reducer so far.
// Backed by a sharded counter so reporting never contends with the
// dispatch hot path.
func (s *Store[S]) DispatchCount() int64 {
	return s.dispatchCount.Load()
}

// Snapshot returns the current state, or ErrUninitializedStore.
func (s *Store[S]) Snapshot() (S, error) {
	state, ok := s.State()
	if !ok {
		return state, ErrUninitializedStore
	}
	return state, nil
}

// WithState calls fn with the current state, or returns
// ErrUninitializedStore without calling fn.
func (s *Store[S]) WithState(fn func(S)) error {
	state, err := s.Snapshot()
	if err != nil {
		return err
	}
	fn(state)
	return nil
}

// EncodeSnapshot encodes the current state with ser, or returns
// ErrUninitializedStore if the store has no state yet.
func (s *Store[S]) EncodeSnapshot(ser snapshot.Serializer[S]) (snapshot.Atom, error) {
	state, err := s.Snapshot()
	if err != nil {
		return snapshot.Atom{}, err
	}
	data, err := ser.Encode(state)
	if err != nil {
		return snapshot.Atom{}, err
	}
	atom := snapshot.Atom{Data: data}
	if named, ok := ser.(interface{ Name() string }); ok {
		atom.Codec = named.Name()
	}
	return atom, nil
}

// Subscribe strongly holds fn, calling it with every subsequent state
// produced by a successful reducer application.
func (s *Store[S]) Subscribe(fn func(S)) registry.Unsubscribe {
	return s.listeners.Subscribe(fn)
}

// SubscribeWeak weakly holds owner; see registry.SubscribeWeak for the
// constraint on fn.
func SubscribeWeak[S, T any](s *Store[S], owner *T, fn func(*T, S)) registry.Unsubscribe {
	return registry.SubscribeWeak(s.listeners, owner, fn)
}

// SubscribeEvent registers handler for every dispatched event of type E,
// run on the worker pool.
func SubscribeEvent[S any, E Event](s *Store[S], handler func(E) error) registry.Unsubscribe {
	tag := tagOf[E]()
	return s.handlers.Subscribe(tag, func(e any) error { return handler(e.(E)) })
}

// SubscribeEventWeak registers handler for events of type E, weakly
// holding owner.
func SubscribeEventWeak[S, T any, E Event](s *Store[S], owner *T, handler func(*T, E) error) registry.Unsubscribe {
	tag := tagOf[E]()
	return registry.SubscribeWeakHandler(s.handlers, tag, owner, func(t *T, e any) error { return handler(t, e.(E)) })
}

func tagOf[E Event]() reflect.Type {
	var zero E
	return reflect.TypeOf(zero)
}

// RegisterActionMiddleware appends mw to the action chain, returning a
// func that removes it.
func (s *Store[S]) RegisterActionMiddleware(mw ActionMiddleware) func() {
	return s.actionMw.add(mw)
}

// RegisterEventMiddleware appends mw to the event chain, returning a func
// that removes it.
func (s *Store[S]) RegisterEventMiddleware(mw EventMiddleware) func() {
	return s.eventMw.add(mw)
}

// WaitForEventHandlers blocks until every currently submitted side-effect
// handler task has returned, or ctx is done.
func (s *Store[S]) WaitForEventHandlers(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitForFinish blocks until FinishEvent has been delivered and OnFinish
// has run, or ctx is done.
func (s *Store[S]) WaitForFinish(ctx context.Context) error {
	select {
	case <-s.finishCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CleanUp stops the scheduler if one was configured, waits for outstanding
// handler work, and releases the worker pool. It is safe to call once the
// store is no longer dispatching.
func (s *Store[S]) CleanUp(ctx context.Context) error {
	if s.schedulerStop != nil {
		s.schedulerStop()
	}
	if err := s.WaitForEventHandlers(ctx); err != nil {
		return err
	}
	return s.pool.Join(ctx)
}
