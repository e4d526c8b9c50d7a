// Package speech abstracts the host's continuous speech-to-text capability
// as a typed event stream.
package speech

import "context"

// Event is one recognition result. Interim events replace each other; a
// final event is a committed segment.
type Event struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// ErrorKind classifies capture failures. All of them are non-fatal to the
// interview; typed input remains available as a fallback.
type ErrorKind string

const (
	KindUnsupported      ErrorKind = "unsupported"
	KindPermissionDenied ErrorKind = "permission-denied"
	KindNoSpeech         ErrorKind = "no-speech"
	KindAborted          ErrorKind = "aborted"
	KindNetwork          ErrorKind = "network"
)

// CaptureError is the distinguished error signal on the recognizer stream.
type CaptureError struct {
	Kind ErrorKind
}

func (e CaptureError) Error() string {
	return "speech capture: " + string(e.Kind)
}

// Recognizer exposes start/stop and the event stream for one session's
// capture channel. Stop is idempotent. On any capture error the recognizer
// auto-stops before emitting the error.
type Recognizer interface {
	// Supported reports whether the host environment offers speech capture
	// at all. Callers must check this before offering recording.
	Supported() bool
	Start(ctx context.Context) error
	Stop()
	Events() <-chan Event
	Errors() <-chan CaptureError
}

// Unsupported is the recognizer wired when no capture channel exists.
type Unsupported struct{}

var _ Recognizer = Unsupported{}

func (Unsupported) Supported() bool                 { return false }
func (Unsupported) Start(ctx context.Context) error { return CaptureError{Kind: KindUnsupported} }
func (Unsupported) Stop()                           {}
func (Unsupported) Events() <-chan Event            { return nil }
func (Unsupported) Errors() <-chan CaptureError     { return nil }
