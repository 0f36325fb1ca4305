package redux_test

import (
	"testing"

	"github.com/aurorastate/redux"
)

func TestWrapHandlerAppliesOutermostFirst(t *testing.T) {
	var order []string
	mark := func(name string) redux.HandlerMiddleware {
		return func(h redux.Handler) redux.Handler {
			return func(e redux.Event) error {
				order = append(order, name)
				return h(e)
			}
		}
	}

	h := redux.WrapHandler(func(redux.Event) error { return nil }, mark("outer"), mark("inner"))
	if err := h(itemAdded{}); err != nil {
		t.Fatal(err)
	}

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("order = %v, want [outer inner]", order)
	}
}
