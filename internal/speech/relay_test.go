package speech

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelayDeliversEventsWhileActive(t *testing.T) {
	r := NewRelay()
	assert.True(t, r.Supported())
	assert.NoError(t, r.Start(context.Background()))

	r.Push(Event{Text: "hello", IsFinal: false})
	r.Push(Event{Text: "hello world", IsFinal: true})

	ev := <-r.Events()
	assert.Equal(t, "hello", ev.Text)
	assert.False(t, ev.IsFinal)

	ev = <-r.Events()
	assert.Equal(t, "hello world", ev.Text)
	assert.True(t, ev.IsFinal)
}

func TestRelayDropsEventsWhenStopped(t *testing.T) {
	r := NewRelay()

	r.Push(Event{Text: "before start"})
	assert.Len(t, r.events, 0)

	assert.NoError(t, r.Start(context.Background()))
	r.Stop()
	r.Push(Event{Text: "after stop"})
	assert.Len(t, r.events, 0)
}

func TestRelayStopIsIdempotent(t *testing.T) {
	r := NewRelay()
	assert.NoError(t, r.Start(context.Background()))

	r.Stop()
	stateAfterOne := r.Active()
	r.Stop()
	assert.Equal(t, stateAfterOne, r.Active())
	assert.False(t, r.Active())
}

func TestRelayFailAutoStops(t *testing.T) {
	r := NewRelay()
	assert.NoError(t, r.Start(context.Background()))

	r.Fail(KindPermissionDenied)

	assert.False(t, r.Active())
	err := <-r.Errors()
	assert.Equal(t, KindPermissionDenied, err.Kind)
}

func TestRelayFailWhenInactiveIsSilent(t *testing.T) {
	r := NewRelay()

	r.Fail(KindNetwork)
	assert.Len(t, r.errs, 0)
}

func TestRelayFullBufferDoesNotBlock(t *testing.T) {
	r := NewRelay()
	assert.NoError(t, r.Start(context.Background()))

	// Push beyond the buffer; must not deadlock
	for i := 0; i < eventBuffer+10; i++ {
		r.Push(Event{Text: "x"})
	}
	assert.Len(t, r.events, eventBuffer)
}

func TestUnsupportedRecognizer(t *testing.T) {
	var rec Recognizer = Unsupported{}

	assert.False(t, rec.Supported())
	err := rec.Start(context.Background())
	var capErr CaptureError
	assert.ErrorAs(t, err, &capErr)
	assert.Equal(t, KindUnsupported, capErr.Kind)
	rec.Stop() // no-op, must not panic
}
