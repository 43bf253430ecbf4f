package events

import (
	"sync"
	"time"
)

// Sink receives outcome events. Implementations must be safe for concurrent
// use because dispatch tasks and job trackers emit simultaneously.
type Sink interface {
	Emit(Event)
}

// Listener is called for every event appended to a Stream
type Listener func(Event)

// Stream is an append-only, concurrency-safe outcome log. Listeners are
// invoked synchronously in append order while the stream lock is held, so
// every listener observes the same total order.
type Stream struct {
	mu        sync.Mutex
	events    []Event
	listeners []Listener
	now       func() time.Time
}

// NewStream creates an empty stream
func NewStream() *Stream {
	return &Stream{now: time.Now}
}

// OnEvent registers a listener for subsequently emitted events
func (s *Stream) OnEvent(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Emit appends an event and notifies listeners
func (s *Stream) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = s.now()
	}
	s.events = append(s.events, e)

	for _, l := range s.listeners {
		l(e)
	}
}

// Events returns a copy of all events emitted so far
func (s *Stream) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ForDevice returns the events for one device serial, in emit order
func (s *Stream) ForDevice(serial string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Event
	for _, e := range s.events {
		if e.Device.Serial == serial {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of events of the given kind
func (s *Stream) Count(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Summary counts terminal outcomes
type Summary struct {
	Succeeded int
	Failed    int
	Warnings  int
}

// Summary tallies terminal events emitted so far
func (s *Stream) Summary() Summary {
	return Summary{
		Succeeded: s.Count(KindSucceeded),
		Failed:    s.Count(KindFailed),
		Warnings:  s.Count(KindWarning),
	}
}

// Discard is a Sink that drops every event
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}
