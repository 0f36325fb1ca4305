package redux

import "github.com/aurorastate/redux/autorun"

// Autorun builds a memoized derived value over s, re-running body only
// when selector's (or comparator's) output changes. Store already
// satisfies autorun.Source, so no adapter is needed.
func Autorun[S, Sel, Ret any](
	s *Store[S],
	selector func(S) (Sel, error),
	comparator func(S) (any, error),
	body autorun.Body[Sel, Ret],
	opts autorun.Options[Ret],
	constructor ...autorun.Constructor[S, Sel, Ret],
) autorun.Engine[Ret] {
	return autorun.New[S, Sel, Ret](s, selector, comparator, body, opts, constructor...)
}

// View builds a non-reactive, memoized derived value over s.
func View[S, Sel, Ret any](
	s *Store[S],
	selector func(S) (Sel, error),
	comparator func(S) (any, error),
	body autorun.Body[Sel, Ret],
	defaultValue Ret,
) autorun.Engine[Ret] {
	return autorun.NewView[S, Sel, Ret](s, selector, comparator, body, defaultValue)
}

// WithState wraps fn so it auto-supplies selector(state) from s's current
// state on every call, instead of requiring the caller to fetch it first.
// ignoreUninitializedStore, if true, makes Call return the zero Ret instead
// of autorun.ErrUninitialized when s has no state yet.
func WithState[S, Sel, Ret any](
	s *Store[S],
	label string,
	selector func(S) (Sel, error),
	fn func(Sel, []any) Ret,
	ignoreUninitializedStore bool,
) *autorun.WithState[S, Sel, Ret] {
	return autorun.NewWithState[S, Sel, Ret](label, s, selector, fn, ignoreUninitializedStore)
}
