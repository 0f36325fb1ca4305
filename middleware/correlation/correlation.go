// Package correlation propagates a correlation ID across dispatched
// actions and events, keyed in their Metadata.
package correlation

import (
	"github.com/google/uuid"

	"github.com/aurorastate/redux"
)

// HeaderCorrelationID is the metadata key holding the correlation ID.
const HeaderCorrelationID = "correlation_id"

// NewAction returns an ActionMiddleware that assigns a correlation ID to
// any dispatched ActionCarrier lacking one.
func NewAction() redux.ActionMiddleware {
	return func(a redux.Action) (redux.Action, bool) {
		c, ok := a.(redux.ActionCarrier)
		if !ok {
			return a, true
		}
		md := c.Metadata().Clone()
		if md == nil {
			md = redux.Metadata{}
		}
		if md[HeaderCorrelationID] != "" {
			return a, true
		}
		md[HeaderCorrelationID] = uuid.NewString()
		return c.WithMetadata(md), true
	}
}

// NewEvent is the Event equivalent of NewAction.
func NewEvent() redux.EventMiddleware {
	return func(e redux.Event) (redux.Event, bool) {
		c, ok := e.(redux.EventCarrier)
		if !ok {
			return e, true
		}
		md := c.Metadata().Clone()
		if md == nil {
			md = redux.Metadata{}
		}
		if md[HeaderCorrelationID] != "" {
			return e, true
		}
		md[HeaderCorrelationID] = uuid.NewString()
		return c.WithMetadata(md), true
	}
}
