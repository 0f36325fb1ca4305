package autorun

// NewView builds an Autorun configured the way a read-only derived value
// usually wants it: no initial call, not reactive, memoized. Call it to
// pull the current derived value; it evaluates the selector on every Call
// but only re-runs body when the comparator output has changed since the
// last Call.
func NewView[S, Sel, Ret any](
	source Source[S],
	selector func(S) (Sel, error),
	comparator func(S) (any, error),
	body Body[Sel, Ret],
	defaultValue Ret,
) Engine[Ret] {
	opts := Options[Ret]{
		DefaultValue: defaultValue,
		Memoization:  true,
	}
	return New(source, selector, comparator, body, opts)
}
