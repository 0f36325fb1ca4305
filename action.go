package redux

// Action is a tagged value describing an intended state transition. User
// code extends the action sum by defining its own types that embed
// BaseAction.
type Action interface {
	isAction()
}

// BaseAction marks a type as an Action. Embed it in user-defined action
// types the way basic_types.py's BaseAction(Immutable) is subclassed.
type BaseAction struct{}

func (BaseAction) isAction() {}

// InitAction is dispatched once when the store is created, if
// Options.AutoInit is set.
type InitAction struct{ BaseAction }

// FinishAction requests orderly shutdown. The reducer is never asked to
// handle it directly by user code; dispatching it flows through the
// reducer like any other action (so state transitions triggered by
// shutdown are still visible to listeners) and then enqueues FinishEvent.
type FinishAction struct{ BaseAction }

// ActionMiddleware maps an action to a replacement action, or to drop by
// returning keep=false. Middlewares run in registration order at dispatch
// time, before the action reaches the queue.
type ActionMiddleware func(Action) (Action, bool)
