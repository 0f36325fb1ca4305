package registry

import (
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"
)

type handlerEntry struct {
	id      uint64
	resolve func() (func(any) error, bool)
}

type tagBucket struct {
	mu       sync.Mutex
	nextID   uint64
	snapshot atomic.Pointer[[]handlerEntry]
}

func newTagBucket() *tagBucket {
	b := &tagBucket{}
	empty := []handlerEntry{}
	b.snapshot.Store(&empty)
	return b
}

func (b *tagBucket) mutate(f func([]handlerEntry) []handlerEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := *b.snapshot.Load()
	next := f(cur)
	b.snapshot.Store(&next)
}

func (b *tagBucket) remove(id uint64) {
	b.mutate(func(cur []handlerEntry) []handlerEntry {
		next := make([]handlerEntry, 0, len(cur))
		for _, e := range cur {
			if e.id != id {
				next = append(next, e)
			}
		}
		return next
	})
}

// Handlers is a registry of event handlers keyed by an event's dynamic
// type, the Go analogue of Python's dict[type[Event], list[EventHandler]]
// keying in the original store.
type Handlers struct {
	buckets sync.Map // reflect.Type -> *tagBucket
}

// NewHandlers returns an empty handler registry.
func NewHandlers() *Handlers { return &Handlers{} }

func (h *Handlers) bucketFor(tag reflect.Type) *tagBucket {
	if v, ok := h.buckets.Load(tag); ok {
		return v.(*tagBucket)
	}
	b := newTagBucket()
	actual, _ := h.buckets.LoadOrStore(tag, b)
	return actual.(*tagBucket)
}

// Subscribe strongly holds fn for events tagged tag.
func (h *Handlers) Subscribe(tag reflect.Type, fn func(any) error) Unsubscribe {
	b := h.bucketFor(tag)
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.mu.Unlock()

	b.mutate(func(cur []handlerEntry) []handlerEntry {
		next := make([]handlerEntry, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, handlerEntry{id: id, resolve: func() (func(any) error, bool) { return fn, true }})
	})
	return func() { b.remove(id) }
}

// SubscribeWeakHandler weakly holds owner for events tagged tag. fn must
// not close over owner, per the same rule as Listeners.SubscribeWeak.
func SubscribeWeakHandler[T any](h *Handlers, tag reflect.Type, owner *T, fn func(*T, any) error) Unsubscribe {
	b := h.bucketFor(tag)
	wp := weak.Make(owner)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.mu.Unlock()

	resolve := func() (func(any) error, bool) {
		target := wp.Value()
		if target == nil {
			return nil, false
		}
		return func(e any) error { return fn(target, e) }, true
	}
	b.mutate(func(cur []handlerEntry) []handlerEntry {
		next := make([]handlerEntry, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, handlerEntry{id: id, resolve: resolve})
	})
	runtime.AddCleanup(owner, func(i uint64) { b.remove(i) }, id)
	return func() { b.remove(id) }
}

// Resolved is a handler call ready to run on a worker. Run resolves any
// weak target and executes fn, silently doing nothing (returning a nil
// error) if the target was already collected.
type Resolved struct {
	Run func() error
}

// Snapshot returns one Resolved per handler registered for tag, evaluated
// against the list as of this call. Weak targets are not re-checked here:
// resolution happens when Run is invoked, which may be later, on a worker
// goroutine, matching the rule that a collected weak handler is simply
// dropped rather than raised.
func (h *Handlers) Snapshot(tag reflect.Type, event any) []Resolved {
	v, ok := h.buckets.Load(tag)
	if !ok {
		return nil
	}
	b := v.(*tagBucket)
	entries := *b.snapshot.Load()
	out := make([]Resolved, len(entries))
	for i, e := range entries {
		e := e
		out[i] = Resolved{
			Run: func() error {
				fn, ok := e.resolve()
				if !ok {
					return nil
				}
				return fn(event)
			},
		}
	}
	return out
}

// Count reports the number of live registrations for tag, not accounting
// for weak targets already collected.
func (h *Handlers) Count(tag reflect.Type) int {
	v, ok := h.buckets.Load(tag)
	if !ok {
		return 0
	}
	return len(*v.(*tagBucket).snapshot.Load())
}

// Clear removes every registration across every tag, used when the store
// shuts down so no further handler is resolved after FinishEvent.
func (h *Handlers) Clear() {
	h.buckets.Range(func(key, value any) bool {
		b := value.(*tagBucket)
		b.mutate(func(cur []handlerEntry) []handlerEntry { return []handlerEntry{} })
		return true
	})
}
