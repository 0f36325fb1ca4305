package redux

// HandlerMiddleware wraps a Handler with cross-cutting behavior — retry,
// timeout, recovery, logging — applied before the handler is passed to
// SubscribeEvent.
type HandlerMiddleware func(Handler) Handler

// WrapHandler applies mws to h in order, so the first middleware is the
// outermost: WrapHandler(h, a, b) runs as a(b(h)).
func WrapHandler(h Handler, mws ...HandlerMiddleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
