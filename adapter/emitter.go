package adapter

import "sync"

// Emitter delivers events to its subscribers synchronously, in the order they are fired.
// After Dispose it drops every event and subscription.
type Emitter[E any] struct {
	listeners map[int]func(E)
	order     []int
	lastID    int
	disposed  bool
	lock      sync.Mutex
}

func NewEmitter[E any]() *Emitter[E] {
	return &Emitter[E]{listeners: make(map[int]func(E))}
}

// Subscribe adds a listener and returns a function that removes it.
func (e *Emitter[E]) Subscribe(listener func(E)) (unsubscribe func()) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.disposed {
		return func() {}
	}
	e.lastID++
	id := e.lastID
	e.listeners[id] = listener
	e.order = append(e.order, id)
	return func() {
		e.lock.Lock()
		defer e.lock.Unlock()
		if _, ok := e.listeners[id]; !ok {
			return
		}
		delete(e.listeners, id)
		for i, v := range e.order {
			if v == id {
				e.order = append(e.order[:i:i], e.order[i+1:]...)
				break
			}
		}
	}
}

// Fire calls every listener with the event, in subscription order.
func (e *Emitter[E]) Fire(event E) {
	e.lock.Lock()
	if e.disposed {
		e.lock.Unlock()
		return
	}
	listeners := make([]func(E), 0, len(e.order))
	for _, id := range e.order {
		listeners = append(listeners, e.listeners[id])
	}
	e.lock.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// Dispose removes all listeners. It is safe to call more than once.
func (e *Emitter[E]) Dispose() {
	e.lock.Lock()
	e.disposed = true
	e.listeners = nil
	e.order = nil
	e.lock.Unlock()
}
