package autorun_test

import (
	"errors"
	"testing"

	"github.com/aurorastate/redux/autorun"
	"github.com/aurorastate/redux/registry"
)

type fakeStore struct {
	state     int
	hasState  bool
	listeners *registry.Listeners[int]
}

func newFakeStore() *fakeStore {
	return &fakeStore{listeners: registry.NewListeners[int]()}
}

func (f *fakeStore) State() (int, bool) { return f.state, f.hasState }

func (f *fakeStore) Subscribe(fn func(int)) registry.Unsubscribe {
	return f.listeners.Subscribe(fn)
}

func (f *fakeStore) push(n int) {
	f.state = n
	f.hasState = true
	f.listeners.NotifyAll(n)
}

func selectInt(n int) (int, error) { return n, nil }

func TestAutorunMemoizesUntilSelectorChanges(t *testing.T) {
	store := newFakeStore()
	store.push(1)

	var calls int
	body := func(sel int, args []any) int {
		calls++
		return sel * 2
	}

	a := autorun.New[int, int, int](store, selectInt, nil, body, autorun.NewOptions(0))

	if got := a.Call(); got != 2 {
		t.Fatalf("Call = %d, want 2", got)
	}
	if got := a.Call(); got != 2 {
		t.Fatalf("Call = %d, want 2 (memoized)", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (second call should be memoized)", calls)
	}

	store.push(5)
	if got := a.Call(); got != 10 {
		t.Fatalf("Call = %d, want 10 after state changed", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestAutorunExplicitArgsBypassMemoization(t *testing.T) {
	store := newFakeStore()
	store.push(1)

	var calls int
	body := func(sel int, args []any) int {
		calls++
		return sel
	}
	a := autorun.New[int, int, int](store, selectInt, nil, body, autorun.NewOptions(0))

	a.Call()
	a.Call("force")
	a.Call("force")

	if calls != 3 {
		t.Errorf("calls = %d, want 3 (explicit args always recompute)", calls)
	}
}

func TestAutorunReactiveReEvaluatesOnPush(t *testing.T) {
	store := newFakeStore()
	store.push(1)

	var received []int
	body := func(sel int, args []any) int { return sel }

	opts := autorun.NewOptions(0)
	opts.Reactive = true
	a := autorun.New[int, int, int](store, selectInt, nil, body, opts)
	a.Subscribe(func(v int) { received = append(received, v) })

	store.push(2)
	store.push(3)

	if len(received) != 2 || received[0] != 2 || received[1] != 3 {
		t.Fatalf("received = %v, want [2 3]", received)
	}
}

func TestAutorunCloseStopsReactiveUpdates(t *testing.T) {
	store := newFakeStore()
	store.push(1)

	var calls int
	body := func(sel int, args []any) int {
		calls++
		return sel
	}
	opts := autorun.NewOptions(0)
	opts.Reactive = true
	a := autorun.New[int, int, int](store, selectInt, nil, body, opts)
	a.Close()

	callsBefore := calls
	store.push(2)
	if calls != callsBefore {
		t.Errorf("calls changed after Close: %d -> %d", callsBefore, calls)
	}
}

func TestAutorunSubscribeInitialRun(t *testing.T) {
	store := newFakeStore()
	store.push(4)
	body := func(sel int, args []any) int { return sel }

	opts := autorun.NewOptions(0)
	opts.InitialCall = true
	opts.SubscribersInitialRun = true
	a := autorun.New[int, int, int](store, selectInt, nil, body, opts)

	var got int
	var ran bool
	a.Subscribe(func(v int) {
		got = v
		ran = true
	})
	if !ran || got != 4 {
		t.Errorf("subscribe did not run immediately with value 4, got ran=%v got=%v", ran, got)
	}
}

func TestAutorunSelectorErrorSkipsCall(t *testing.T) {
	store := newFakeStore()
	store.push(1)

	failing := func(n int) (int, error) { return 0, errors.New("not ready") }
	var calls int
	body := func(sel int, args []any) int {
		calls++
		return sel
	}
	a := autorun.New[int, int, int](store, failing, nil, body, autorun.NewOptions(-1))

	if got := a.Call(); got != -1 {
		t.Errorf("Call = %d, want default value -1", got)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestAutorunSelectorAttributeErrorIsNotReportedToOnError(t *testing.T) {
	store := newFakeStore()
	store.push(1)

	failing := func(n int) (int, error) { return 0, &autorun.SelectorAttributeError{Attr: "missing"} }
	var reported []error
	opts := autorun.NewOptions(-1)
	opts.OnError = func(err error) { reported = append(reported, err) }
	a := autorun.New[int, int, int](store, failing, nil, func(sel int, args []any) int { return sel }, opts)

	if got := a.Call(); got != -1 {
		t.Errorf("Call = %d, want default value -1", got)
	}
	if len(reported) != 0 {
		t.Errorf("reported = %v, want none for a SelectorAttributeError", reported)
	}
}

func TestAutorunOtherSelectorErrorsReportToOnError(t *testing.T) {
	store := newFakeStore()
	store.push(1)

	want := errors.New("not ready")
	failing := func(n int) (int, error) { return 0, want }
	var reported []error
	opts := autorun.NewOptions(-1)
	opts.OnError = func(err error) { reported = append(reported, err) }
	a := autorun.New[int, int, int](store, failing, nil, func(sel int, args []any) int { return sel }, opts)

	if got := a.Call(); got != -1 {
		t.Errorf("Call = %d, want default value -1", got)
	}
	// New checks the store's existing state once and Call checks it again,
	// so the failing selector is reported twice.
	if len(reported) != 2 || !errors.Is(reported[0], want) || !errors.Is(reported[1], want) {
		t.Errorf("reported = %v, want [%v %v]", reported, want, want)
	}
}

type constantEngine struct{ value int }

func (e *constantEngine) Call(args ...any) int                             { return e.value }
func (e *constantEngine) Value() int                                       { return e.value }
func (e *constantEngine) Subscribe(callback func(int)) registry.Unsubscribe { return func() {} }
func (e *constantEngine) Close()                                           {}

func TestNewAcceptsCustomConstructor(t *testing.T) {
	store := newFakeStore()
	store.push(1)

	var built bool
	constructor := func(
		source autorun.Source[int],
		selector func(int) (int, error),
		comparator func(int) (any, error),
		body autorun.Body[int, int],
		opts autorun.Options[int],
	) autorun.Engine[int] {
		built = true
		return &constantEngine{value: 42}
	}

	a := autorun.New[int, int, int](store, selectInt, nil, func(sel int, args []any) int { return sel }, autorun.NewOptions(0), constructor)

	if !built {
		t.Fatal("custom constructor was not invoked")
	}
	if got := a.Call(); got != 42 {
		t.Errorf("Call = %d, want 42 from custom engine", got)
	}
}

func TestNewViewIsNotReactiveAndMemoizes(t *testing.T) {
	store := newFakeStore()
	store.push(1)

	var calls int
	body := func(sel int, args []any) int {
		calls++
		return sel
	}
	v := autorun.NewView[int, int, int](store, selectInt, nil, body, 0)

	if got := v.Call(); got != 1 {
		t.Fatalf("Call = %d, want 1", got)
	}
	store.push(1)
	v.Call()
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (unchanged selector output shouldn't recompute)", calls)
	}
}
