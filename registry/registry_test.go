package registry_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/aurorastate/redux/registry"
)

func TestListenersNotifyInSubscriptionOrder(t *testing.T) {
	l := registry.NewListeners[int]()
	var order []int
	l.Subscribe(func(n int) { order = append(order, n*10+1) })
	l.Subscribe(func(n int) { order = append(order, n*10+2) })

	if err := l.NotifyAll(3); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != 31 || order[1] != 32 {
		t.Fatalf("order = %v, want [31 32]", order)
	}
}

func TestListenersUnsubscribeRemovesEntry(t *testing.T) {
	l := registry.NewListeners[int]()
	var calls int
	unsub := l.Subscribe(func(int) { calls++ })
	unsub()
	_ = l.NotifyAll(1)
	if calls != 0 {
		t.Errorf("calls = %d, want 0 after unsubscribe", calls)
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
}

func TestListenersUnsubscribeIsIdempotent(t *testing.T) {
	l := registry.NewListeners[int]()
	unsub := l.Subscribe(func(int) {})
	unsub()
	unsub()
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
}

func TestListenersClearRemovesEverything(t *testing.T) {
	l := registry.NewListeners[int]()
	l.Subscribe(func(int) {})
	l.Subscribe(func(int) {})
	l.Clear()
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0 after Clear", l.Len())
	}
}

// observer is padded past the 16-byte tiny-allocator size class, so a
// weak pointer to it is cleared as soon as the collector frees it.
type observer struct {
	calls int
	_     [16]byte
}

func (o *observer) onState(n int) { o.calls++ }

func TestSubscribeWeakInvokesWhileOwnerAlive(t *testing.T) {
	l := registry.NewListeners[int]()
	o := &observer{}
	registry.SubscribeWeak(l, o, (*observer).onState)

	if err := l.NotifyAll(1); err != nil {
		t.Fatal(err)
	}
	if o.calls != 1 {
		t.Errorf("calls = %d, want 1", o.calls)
	}
}

func TestSubscribeWeakReportsCollectedTarget(t *testing.T) {
	l := registry.NewListeners[int]()
	o := &observer{}
	registry.SubscribeWeak(l, o, (*observer).onState)
	o = nil
	_ = o

	runtime.GC()
	runtime.GC()

	deadline := time.Now().Add(2 * time.Second)
	for l.Len() > 0 && time.Now().Before(deadline) {
		err := l.NotifyAll(1)
		if err == registry.ErrCollected {
			return
		}
		time.Sleep(10 * time.Millisecond)
		runtime.GC()
	}
	if l.Len() > 0 {
		t.Error("collected weak listener was neither reported nor pruned")
	}
}
