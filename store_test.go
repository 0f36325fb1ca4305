package redux_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aurorastate/redux"
	"github.com/aurorastate/redux/workerpool"
)

type counterState struct {
	Count int
}

type increment struct{ redux.BaseAction }
type decrement struct{ redux.BaseAction }

func counterReducer(state *counterState, action redux.Action) redux.Result[counterState] {
	cur := counterState{}
	if state != nil {
		cur = *state
	}
	switch action.(type) {
	case increment:
		cur.Count++
	case decrement:
		cur.Count--
	}
	return redux.Plain(cur)
}

func TestCounterDispatchSequence(t *testing.T) {
	store, err := redux.New(counterReducer, redux.Options[counterState]{AutoInit: true})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if err := store.Dispatch(increment{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Dispatch(decrement{}); err != nil {
		t.Fatal(err)
	}

	state, err := store.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if state.Count != 4 {
		t.Errorf("count = %d, want 4", state.Count)
	}
	if got := store.DispatchCount(); got != 6 {
		t.Errorf("DispatchCount = %d, want 6", got)
	}
}

func TestSubscribeReceivesEveryState(t *testing.T) {
	store, err := redux.New(counterReducer, redux.Options[counterState]{})
	if err != nil {
		t.Fatal(err)
	}

	var seen []int
	unsub := store.Subscribe(func(s counterState) { seen = append(seen, s.Count) })
	defer unsub()

	for i := 0; i < 3; i++ {
		_ = store.Dispatch(increment{})
	}

	if len(seen) != 3 || seen[2] != 3 {
		t.Fatalf("seen = %v, want [1 2 3]", seen)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store, err := redux.New(counterReducer, redux.Options[counterState]{})
	if err != nil {
		t.Fatal(err)
	}

	var calls int
	unsub := store.Subscribe(func(counterState) { calls++ })
	_ = store.Dispatch(increment{})
	unsub()
	_ = store.Dispatch(increment{})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

type itemAdded struct {
	redux.BaseEvent
	Name string
}

func compositeReducer(state *counterState, action redux.Action) redux.Result[counterState] {
	cur := counterState{}
	if state != nil {
		cur = *state
	}
	if _, ok := action.(increment); ok {
		cur.Count++
		return redux.Composite(cur, nil, []redux.Event{itemAdded{Name: "item"}})
	}
	return redux.Plain(cur)
}

func TestEventFanOut(t *testing.T) {
	store, err := redux.New(compositeReducer, redux.Options[counterState]{})
	if err != nil {
		t.Fatal(err)
	}

	var hits atomic.Int64
	redux.SubscribeEvent(store, func(e itemAdded) error {
		hits.Add(1)
		return nil
	})
	redux.SubscribeEvent(store, func(e itemAdded) error {
		hits.Add(1)
		return nil
	})

	if err := store.Dispatch(increment{}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := store.WaitForEventHandlers(ctx); err != nil {
		t.Fatal(err)
	}

	if got := hits.Load(); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
}

func TestMiddlewareDropsAction(t *testing.T) {
	store, err := redux.New(counterReducer, redux.Options[counterState]{})
	if err != nil {
		t.Fatal(err)
	}

	store.RegisterActionMiddleware(func(a redux.Action) (redux.Action, bool) {
		_, isDecrement := a.(decrement)
		return a, !isDecrement
	})

	_ = store.Dispatch(increment{})
	_ = store.Dispatch(decrement{})

	state, err := store.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if state.Count != 1 {
		t.Errorf("count = %d, want 1 (decrement should have been dropped)", state.Count)
	}
}

func TestSnapshotBeforeFirstDispatch(t *testing.T) {
	store, err := redux.New(counterReducer, redux.Options[counterState]{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Snapshot(); err != redux.ErrUninitializedStore {
		t.Errorf("err = %v, want ErrUninitializedStore", err)
	}
}

func finishReducer(state *counterState, action redux.Action) redux.Result[counterState] {
	cur := counterState{}
	if state != nil {
		cur = *state
	}
	return redux.Plain(cur)
}

func TestFinishShutdownCallsOnFinishOnce(t *testing.T) {
	var onFinishCalls atomic.Int64
	store, err := redux.New(finishReducer, redux.Options[counterState]{
		OnFinish: func() { onFinishCalls.Add(1) },
	})
	if err != nil {
		t.Fatal(err)
	}

	var listenerCalls atomic.Int64
	store.Subscribe(func(counterState) { listenerCalls.Add(1) })

	if err := store.Dispatch(redux.FinishAction{}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := store.WaitForFinish(ctx); err != nil {
		t.Fatal(err)
	}

	_ = store.Dispatch(increment{})

	if onFinishCalls.Load() != 1 {
		t.Errorf("OnFinish calls = %d, want 1", onFinishCalls.Load())
	}
	if got := listenerCalls.Load(); got != 1 {
		t.Errorf("listener calls after finish = %d, want 1 (cleared on finish)", got)
	}
}

// TestFinishShutdownJoinsWorkersBeforeOnFinish asserts that by the time
// WaitForFinish returns, the worker handling FinishEvent has already run
// to completion — no separate CleanUp call should be required to observe
// that the worker pool has quiesced.
func TestFinishShutdownJoinsWorkersBeforeOnFinish(t *testing.T) {
	store, err := redux.New(finishReducer, redux.Options[counterState]{})
	if err != nil {
		t.Fatal(err)
	}

	var handlerDone atomic.Bool
	redux.SubscribeEvent(store, func(redux.FinishEvent) error {
		time.Sleep(20 * time.Millisecond)
		handlerDone.Store(true)
		return nil
	})

	if err := store.Dispatch(redux.FinishAction{}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := store.WaitForFinish(ctx); err != nil {
		t.Fatal(err)
	}

	if !handlerDone.Load() {
		t.Error("FinishEvent handler had not completed by the time WaitForFinish returned")
	}
}

func TestSchedulerReplacesInlineDrain(t *testing.T) {
	var recorded []func()
	var intervals []time.Duration
	scheduler := func(callback func(), interval time.Duration) func() {
		recorded = append(recorded, callback)
		intervals = append(intervals, interval)
		return func() {}
	}

	store, err := redux.New(counterReducer, redux.Options[counterState]{
		AutoInit:  true,
		Scheduler: scheduler,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(recorded) != 2 {
		t.Fatalf("recorded = %d callbacks, want 2 (recurring drain + one-shot init)", len(recorded))
	}
	if intervals[0] <= 0 {
		t.Errorf("recurring scheduler interval = %v, want > 0", intervals[0])
	}
	if intervals[1] != 0 {
		t.Errorf("auto-init scheduler interval = %v, want 0 (one-shot)", intervals[1])
	}

	if _, ok := store.State(); ok {
		t.Fatal("InitAction should not be applied until the scheduler runs its one-shot callback")
	}
	recorded[1]()
	if _, ok := store.State(); !ok {
		t.Fatal("InitAction should be applied after the one-shot scheduler callback runs")
	}

	if err := store.Dispatch(increment{}); err != nil {
		t.Fatal(err)
	}
	state, _ := store.State()
	if state.Count != 0 {
		t.Fatalf("count = %d, want 0 before the scheduler drains", state.Count)
	}

	recorded[0]()
	state, _ = store.State()
	if state.Count != 1 {
		t.Errorf("count = %d, want 1 after the scheduler drains", state.Count)
	}
}

func TestSideEffectRunnerFactoryOverridesDefault(t *testing.T) {
	var called bool
	var gotSize int
	factory := func(size int, logger *slog.Logger, onPanic workerpool.PanicHandler) (*workerpool.Pool, error) {
		called = true
		gotSize = size
		return workerpool.New(size, logger, onPanic)
	}

	store, err := redux.New(counterReducer, redux.Options[counterState]{
		AutoInit:          true,
		SideEffectThreads: 3,
		SideEffectRunner:  factory,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("custom SideEffectRunner factory was not invoked")
	}
	if gotSize != 3 {
		t.Errorf("factory size = %d, want 3", gotSize)
	}
	if err := store.CleanUp(context.Background()); err != nil {
		t.Fatal(err)
	}
}
