package autorun

import "errors"

// ErrUninitialized is returned by WithState.Call when the store has no
// state yet and IgnoreUninitializedStore is false.
var ErrUninitialized = errors.New("autorun: store has not been initialized yet")

// WithState wraps a function that needs the selector's output from the
// store's current state, auto-supplying it on every Call instead of
// requiring the caller to fetch state first. Label names the wrapper for
// logs/diagnostics, the Go stand-in for with_state.py forwarding
// func.__name__.
type WithState[S, Sel, Ret any] struct {
	Label string

	// IgnoreUninitializedStore makes Call return the zero Ret and a nil
	// error instead of ErrUninitialized when the store has no state yet.
	IgnoreUninitializedStore bool

	source   Source[S]
	selector func(S) (Sel, error)
	fn       func(Sel, []any) Ret
}

// NewWithState builds a WithState wrapper around fn. ignoreUninitializedStore
// sets the field of the same name.
func NewWithState[S, Sel, Ret any](
	label string,
	source Source[S],
	selector func(S) (Sel, error),
	fn func(Sel, []any) Ret,
	ignoreUninitializedStore bool,
) *WithState[S, Sel, Ret] {
	return &WithState[S, Sel, Ret]{
		Label:                    "WithState:" + label,
		IgnoreUninitializedStore: ignoreUninitializedStore,
		source:                   source,
		selector:                 selector,
		fn:                       fn,
	}
}

// Call pulls the current state, applies the selector, and runs fn with the
// result plus args.
func (w *WithState[S, Sel, Ret]) Call(args ...any) (Ret, error) {
	var zero Ret
	state, ok := w.source.State()
	if !ok {
		if w.IgnoreUninitializedStore {
			return zero, nil
		}
		return zero, ErrUninitialized
	}
	selected, err := w.selector(state)
	if err != nil {
		return zero, err
	}
	return w.fn(selected, args), nil
}

// Name returns the wrapper's diagnostic label.
func (w *WithState[S, Sel, Ret]) Name() string { return w.Label }
