package dto

import "time"

// SessionEventMessage is the envelope carried on the internal event topic
// between the publisher and consumer services.
type SessionEventMessage struct {
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}
