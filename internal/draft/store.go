// Package draft snapshots the in-progress answer so a reload can recover
// unsent work.
package draft

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Draft is the single unsent-answer slot for a session. Superseded drafts
// are overwritten, never appended.
type Draft struct {
	SessionId     uuid.UUID `json:"session_id"`
	QuestionOrder int       `json:"question_order"`
	Text          string    `json:"text"`
	SavedAt       time.Time `json:"saved_at"`
}

// Store persists at most one draft per session. Writes are last-write-wins.
type Store interface {
	Save(ctx context.Context, d *Draft) error
	// Get returns nil when no draft exists for the session.
	Get(ctx context.Context, sessionID uuid.UUID) (*Draft, error)
	Clear(ctx context.Context, sessionID uuid.UUID) error
}
