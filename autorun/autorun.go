package autorun

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/aurorastate/redux/registry"
)

// Source is the slice of Store an Autorun needs: the current state and the
// ability to subscribe to every subsequent one. *redux.Store[S] satisfies
// this without autorun importing the root package, avoiding an import
// cycle.
type Source[S any] interface {
	State() (S, bool)
	Subscribe(func(S)) registry.Unsubscribe
}

// Body computes Ret from a selector's output plus whatever extra
// arguments a caller passes to Call.
type Body[Sel, Ret any] func(selected Sel, args []any) Ret

// Engine is what New and NewView return: something callable, subscribable,
// and closeable over a memoized Ret. The built-in *Autorun satisfies it;
// a Constructor can swap in a different implementation entirely.
type Engine[Ret any] interface {
	Call(args ...any) Ret
	Value() Ret
	Subscribe(callback func(Ret)) registry.Unsubscribe
	Close()
}

// Constructor builds an Engine from the same arguments New would otherwise
// use to build the built-in *Autorun, the injection point for a caller that
// wants a different re-evaluation strategy entirely instead of the built-in
// one.
type Constructor[S, Sel, Ret any] func(
	source Source[S],
	selector func(S) (Sel, error),
	comparator func(S) (any, error),
	body Body[Sel, Ret],
	opts Options[Ret],
) Engine[Ret]

// Autorun re-evaluates Body against selector(state), skipping the call
// when memoized and nothing relevant changed.
type Autorun[S, Sel, Ret any] struct {
	source     Source[S]
	selector   func(S) (Sel, error)
	comparator func(S) (any, error)
	body       Body[Sel, Ret]
	opts       Options[Ret]

	mu             sync.Mutex
	haveSelector   bool
	lastSelector   Sel
	haveComparator bool
	lastComparator any
	shouldCall     bool
	latest         Ret

	subscribers *registry.Listeners[Ret]
	unsubscribe registry.Unsubscribe
}

// New builds an Autorun over source. comparator may be nil, in which case
// the selector's own output (compared with !=) drives recomputation.
//
// An optional trailing constructor swaps in a different Engine
// implementation instead of the built-in one; New returns whatever it
// builds as is, so the initial call and the reactive subscription are left
// to that Engine. At most one constructor is used; passing more than one
// is a programmer error and only the first is applied.
func New[S, Sel, Ret any](
	source Source[S],
	selector func(S) (Sel, error),
	comparator func(S) (any, error),
	body Body[Sel, Ret],
	opts Options[Ret],
	constructor ...Constructor[S, Sel, Ret],
) Engine[Ret] {
	if len(constructor) > 0 && constructor[0] != nil {
		return constructor[0](source, selector, comparator, body, opts)
	}

	a := &Autorun[S, Sel, Ret]{
		source:      source,
		selector:    selector,
		comparator:  comparator,
		body:        body,
		opts:        opts,
		latest:      opts.DefaultValue,
		subscribers: registry.NewListeners[Ret](),
	}

	if state, ok := source.State(); ok && a.check(state) && opts.InitialCall {
		a.shouldCall = false
		a.invoke(nil)
	}

	if opts.Reactive {
		a.unsubscribe = source.Subscribe(a.react)
	}
	return a
}

func (a *Autorun[S, Sel, Ret]) react(state S) {
	if !a.opts.Reactive {
		return
	}
	if a.check(state) {
		a.mu.Lock()
		a.shouldCall = false
		a.mu.Unlock()
		a.invoke(nil)
	}
}

// check evaluates the selector and comparator against state, updating
// shouldCall if the comparator output differs from the last observed one.
// A *SelectorAttributeError (the field isn't present yet on this state) is
// treated as "don't call, try again next time"; any other error is reported
// through Options.OnError and also treated as "don't call", since there is
// no sensible Ret to hand to body.
func (a *Autorun[S, Sel, Ret]) check(state S) bool {
	selected, err := a.selector(state)
	if err != nil {
		a.reportError(err)
		return false
	}

	var comparatorResult any
	if a.comparator == nil {
		comparatorResult = selected
	} else {
		comparatorResult, err = a.comparator(state)
		if err != nil {
			a.reportError(err)
			return false
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	changed := !a.haveComparator || !equalAny(comparatorResult, a.lastComparator)
	a.shouldCall = a.shouldCall || changed
	a.lastSelector = selected
	a.haveSelector = true
	a.lastComparator = comparatorResult
	a.haveComparator = true
	return a.shouldCall
}

// reportError is a no-op for a *SelectorAttributeError, since that one is
// the expected "state not ready yet" signal. Anything else goes to
// Options.OnError, or slog.Default if unset.
func (a *Autorun[S, Sel, Ret]) reportError(err error) {
	var attrErr *SelectorAttributeError
	if errors.As(err, &attrErr) {
		return
	}
	if a.opts.OnError != nil {
		a.opts.OnError(err)
		return
	}
	slog.Default().Error("autorun: selector or comparator failed", "error", err)
}

// equalAny compares two values the way Python's != does across arbitrary
// objects: never panics on an uncomparable dynamic type, just reports
// "changed".
func equalAny(x, y any) bool {
	defer func() { recover() }()
	return x == y
}

// invoke runs body with the last selector result and args, notifying
// subscribers if the produced value changed.
func (a *Autorun[S, Sel, Ret]) invoke(args []any) {
	a.mu.Lock()
	if !a.haveSelector {
		a.mu.Unlock()
		return
	}
	selected := a.lastSelector
	previous := a.latest
	a.mu.Unlock()

	value := a.body(selected, args)

	a.mu.Lock()
	a.latest = value
	a.mu.Unlock()

	if !equalAny(value, previous) {
		a.subscribers.NotifyAll(value)
	}
}

// Call re-evaluates against the store's current state. If memoization is
// on and nothing changed and no args were given, it returns the memoized
// Value without running body again.
func (a *Autorun[S, Sel, Ret]) Call(args ...any) Ret {
	state, ok := a.source.State()
	if ok {
		a.check(state)
	}

	a.mu.Lock()
	should := a.shouldCall || len(args) > 0 || !a.opts.Memoization
	if should {
		a.shouldCall = false
	}
	a.mu.Unlock()

	if should {
		a.invoke(args)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

// Value returns the last computed result without re-evaluating.
func (a *Autorun[S, Sel, Ret]) Value() Ret {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

// Subscribe registers callback to be notified whenever Value changes as a
// result of Call or a reactive re-evaluation.
func (a *Autorun[S, Sel, Ret]) Subscribe(callback func(Ret)) registry.Unsubscribe {
	unsub := a.subscribers.Subscribe(callback)
	if a.opts.SubscribersInitialRun {
		callback(a.Value())
	}
	return unsub
}

// Close stops reactive re-evaluation, if it was enabled.
func (a *Autorun[S, Sel, Ret]) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}
