package speech

import (
	"context"
	"sync"
)

const (
	eventBuffer = 64
	errorBuffer = 4
)

// Relay is the production Recognizer: the browser runs the Web Speech API
// and relays its results over a WebSocket, and the handler feeds them in via
// Push/Fail. The orchestrator consumes the channels like any other
// recognizer, unaware of the transport.
type Relay struct {
	mu     sync.Mutex
	active bool

	events chan Event
	errs   chan CaptureError
}

var _ Recognizer = &Relay{}

func NewRelay() *Relay {
	return &Relay{
		events: make(chan Event, eventBuffer),
		errs:   make(chan CaptureError, errorBuffer),
	}
}

func (r *Relay) Supported() bool {
	return true
}

func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
	return nil
}

// Stop is idempotent; events pushed after Stop are dropped.
func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
}

func (r *Relay) Events() <-chan Event {
	return r.events
}

func (r *Relay) Errors() <-chan CaptureError {
	return r.errs
}

// Push feeds one recognition result from the transport. Results arriving
// while the recognizer is stopped are discarded; a full buffer drops the
// oldest-pending semantics in favor of not blocking the transport.
func (r *Relay) Push(ev Event) {
	r.mu.Lock()
	active := r.active
	r.mu.Unlock()
	if !active {
		return
	}

	select {
	case r.events <- ev:
	default:
	}
}

// Fail records a capture error from the transport. The recognizer
// auto-stops before the error is surfaced.
func (r *Relay) Fail(kind ErrorKind) {
	r.mu.Lock()
	wasActive := r.active
	r.active = false
	r.mu.Unlock()
	if !wasActive {
		return
	}

	select {
	case r.errs <- CaptureError{Kind: kind}:
	default:
	}
}

// Active reports whether the relay currently accepts events.
func (r *Relay) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
