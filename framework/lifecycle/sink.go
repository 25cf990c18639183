package lifecycle

import "sync"

// Sink receives lifecycle events in the order they are produced. Handle must not block for long,
// since events are delivered synchronously.
type Sink interface {
	Handle(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Handle(e Event) { f(e) }

type nullSink struct{}

func (nullSink) Handle(Event) {}

func NullSink() Sink { return nullSink{} }

// MultiSink delivers each event to every sink in order.
type MultiSink []Sink

func (m MultiSink) Handle(e Event) {
	for _, s := range m {
		if s != nil {
			s.Handle(e)
		}
	}
}

// Recorder is a Sink that keeps every event it receives.
type Recorder struct {
	events []Event
	lock   sync.Mutex
}

func (r *Recorder) Handle(e Event) {
	r.lock.Lock()
	r.events = append(r.events, e)
	r.lock.Unlock()
}

// Events returns a copy of the events received so far.
func (r *Recorder) Events() []Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Event(nil), r.events...)
}
