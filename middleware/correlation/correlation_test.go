package correlation_test

import (
	"testing"

	"github.com/aurorastate/redux"
	"github.com/aurorastate/redux/middleware/correlation"
)

type orderPlaced struct {
	redux.BaseAction
	ID   string
	meta redux.Metadata
}

func (a orderPlaced) Metadata() redux.Metadata { return a.meta }

func (a orderPlaced) WithMetadata(md redux.Metadata) redux.Action {
	a.meta = md
	return a
}

func TestCorrelationAssignsIDWhenMissing(t *testing.T) {
	mw := correlation.NewAction()

	out, keep := mw(orderPlaced{ID: "o1"})
	if !keep {
		t.Fatal("middleware dropped the action")
	}

	carrier := out.(orderPlaced)
	id := carrier.Metadata()[correlation.HeaderCorrelationID]
	if id == "" {
		t.Error("correlation id was not assigned")
	}
}

func TestCorrelationPreservesExistingID(t *testing.T) {
	mw := correlation.NewAction()
	seeded := orderPlaced{ID: "o1", meta: redux.Metadata{correlation.HeaderCorrelationID: "fixed-id"}}

	out, _ := mw(seeded)
	carrier := out.(orderPlaced)
	if got := carrier.Metadata()[correlation.HeaderCorrelationID]; got != "fixed-id" {
		t.Errorf("correlation id = %q, want fixed-id", got)
	}
}

func TestCorrelationIgnoresNonCarrierActions(t *testing.T) {
	mw := correlation.NewAction()
	out, keep := mw(redux.InitAction{})
	if !keep {
		t.Fatal("middleware dropped a plain action")
	}
	if _, ok := out.(redux.InitAction); !ok {
		t.Errorf("out = %T, want unchanged InitAction", out)
	}
}

type itemShipped struct {
	redux.BaseEvent
	meta redux.Metadata
}

func (e itemShipped) Metadata() redux.Metadata { return e.meta }

func (e itemShipped) WithMetadata(md redux.Metadata) redux.Event {
	e.meta = md
	return e
}

func TestCorrelationEventAssignsIDWhenMissing(t *testing.T) {
	mw := correlation.NewEvent()
	out, keep := mw(itemShipped{})
	if !keep {
		t.Fatal("middleware dropped the event")
	}
	carrier := out.(itemShipped)
	if carrier.Metadata()[correlation.HeaderCorrelationID] == "" {
		t.Error("correlation id was not assigned")
	}
}
