package redux

import "sync"

// middlewareList is an ordered, concurrently-mutable list of middlewares,
// snapshotted each time an item runs through the chain so registering or
// unregistering one mid-dispatch never affects an item already in flight.
type middlewareList[T any] struct {
	mu      sync.Mutex
	nextID  uint64
	entries []mwEntry[T]
}

type mwEntry[T any] struct {
	id uint64
	fn T
}

func newMiddlewareList[T any](initial []T) *middlewareList[T] {
	m := &middlewareList[T]{}
	for _, fn := range initial {
		m.add(fn)
	}
	return m
}

func (m *middlewareList[T]) add(fn T) (unregister func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.entries = append(m.entries, mwEntry[T]{id: id, fn: fn})
	m.mu.Unlock()
	return func() { m.remove(id) }
}

func (m *middlewareList[T]) remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mwEntry[T], 0, len(m.entries))
	for _, e := range m.entries {
		if e.id != id {
			out = append(out, e)
		}
	}
	m.entries = out
}

func (m *middlewareList[T]) snapshot() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]T, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.fn
	}
	return out
}
