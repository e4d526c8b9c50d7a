package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	TypeInteractionRecorded = "INTERACTION_RECORDED"
	TypeSessionCompleted    = "SESSION_COMPLETED"
)

// NewInteractionRecorded is emitted after an answer is durably persisted.
func NewInteractionRecorded(sessionID, userID uuid.UUID, order int) Event {
	return BaseEvent{
		Type: TypeInteractionRecorded,
		Data: map[string]interface{}{
			"session_id": sessionID.String(),
			"user_id":    userID.String(),
			"order":      order,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionCompleted is emitted once a session is finalized.
func NewSessionCompleted(sessionID, userID uuid.UUID, totalQuestions int, duration time.Duration) Event {
	return BaseEvent{
		Type: TypeSessionCompleted,
		Data: map[string]interface{}{
			"session_id":       sessionID.String(),
			"user_id":          userID.String(),
			"total_questions":  totalQuestions,
			"duration_seconds": int(duration.Seconds()),
		},
		OccurredAt: time.Now(),
	}
}
