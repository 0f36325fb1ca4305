package redux

import "reflect"

// Event is a tagged value describing something that happened, dispatched
// to event handlers rather than through the reducer. User code extends the
// event sum by defining its own types that embed BaseEvent.
type Event interface {
	isEvent()
}

// BaseEvent marks a type as an Event.
type BaseEvent struct{}

func (BaseEvent) isEvent() {}

// FinishEvent is enqueued once the reducer has settled FinishAction and the
// grace period has elapsed, signalling side-effect handlers to wind down.
type FinishEvent struct{ BaseEvent }

// eventTag identifies an event's variant for handler lookup, the Go
// equivalent of Python's type(event) dict key.
func eventTag(e Event) reflect.Type {
	return reflect.TypeOf(e)
}

// Handler is a side-effect callback invoked off the dispatch goroutine, on
// the worker pool, once per registration, for every dispatched event whose
// tag it is registered under. An error return is logged as a
// HandlerFailure; it never aborts the drain loop, unlike a listener error.
type Handler func(Event) error

// EventMiddleware maps an event to a replacement event, or drops it by
// returning keep=false, before it is queued for delivery to handlers.
type EventMiddleware func(Event) (Event, bool)

// Metadata is free-form key/value data threaded alongside an action or
// event.
type Metadata map[string]string

// Clone returns a shallow copy, so middlewares can annotate without
// mutating a shared map.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
