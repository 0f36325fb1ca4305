package redux

import (
	"fmt"

	"github.com/aurorastate/redux/autorun"
	"github.com/aurorastate/redux/registry"
)

// ErrUninitializedStore is returned by the Store accessors (Snapshot,
// WithState, EncodeSnapshot) called before the store has produced a first
// state, on a store with AutoInit disabled and no action dispatched yet.
var ErrUninitializedStore = fmt.Errorf("redux: store has no state yet")

// ErrCollectedWeakReference is reported, wrapped in a ListenerFailure, when
// a weakly held listener's target has been garbage collected. The
// offending entry is self-pruned from the registry before the error is
// returned.
var ErrCollectedWeakReference = registry.ErrCollected

// ReducerFailure wraps a panic recovered from a reducer invocation.
type ReducerFailure struct {
	Action Action
	Value  any
}

func (e *ReducerFailure) Error() string {
	return fmt.Sprintf("redux: reducer panicked on %T: %v", e.Action, e.Value)
}

// MiddlewareFailure wraps a panic recovered from an action or event
// middleware invocation.
type MiddlewareFailure struct {
	Value any
}

func (e *MiddlewareFailure) Error() string {
	return fmt.Sprintf("redux: middleware panicked: %v", e.Value)
}

// ListenerFailure wraps the error a state listener entry reports (a weakly
// held listener whose target was collected). The dispatch that triggered
// it aborts the remainder of the drain pass. A panic in a listener is not
// recovered; it propagates out of the dispatching call.
type ListenerFailure struct {
	Cause any
}

func (e *ListenerFailure) Error() string {
	return fmt.Sprintf("redux: listener failed: %v", e.Cause)
}

func (e *ListenerFailure) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// HandlerFailure wraps the error returned by a side-effect event handler
// running on the worker pool. Unlike ListenerFailure, it never aborts the
// drain loop — it is only logged.
type HandlerFailure struct {
	Event Event
	Value any
}

func (e *HandlerFailure) Error() string {
	return fmt.Sprintf("redux: handler failed on %T: %v", e.Event, e.Value)
}

// SelectorAttributeError is autorun.SelectorAttributeError re-exported at
// the root so a selector passed to Autorun/View/WithState can construct one
// without importing the autorun package directly.
type SelectorAttributeError = autorun.SelectorAttributeError
