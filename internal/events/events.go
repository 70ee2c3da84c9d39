package events

import (
	"sync"
	"time"
)

// Package events carries named error events from the fetch/resolve pipeline to
// whoever supervises it. Failures inside a cycle never abort the cycle; they
// surface here instead.

// Names of events emitted by the pipeline.
const (
	NameAuthError      = "auth_error"
	NameTransportError = "transport_error"
	NameProtocolError  = "protocol_error"
	NameLookupError    = "lookup_error"
)

// Event is a single error occurrence.
type Event struct {
	Name string
	Err  error
	At   time.Time
}

// Handler consumes emitted events.
type Handler func(Event)

// Bus dispatches events to all subscribed handlers. Safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs []Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all future events.
func (b *Bus) Subscribe(h Handler) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	b.subs = append(b.subs, h)
	b.mu.Unlock()
}

// Emit delivers the event to every subscriber synchronously.
func (b *Bus) Emit(name string, err error) {
	if b == nil || err == nil {
		return
	}

	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	evt := Event{Name: name, Err: err, At: time.Now()}
	for _, h := range subs {
		h(evt)
	}
}
