package entity

import (
	"time"

	"github.com/google/uuid"
)

// Interaction is one question/answer exchange within a session. Order is
// 1-based and strictly increasing per session; the record is immutable once
// persisted.
type Interaction struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Question  string
	Answer    string
	Order     int
	CreatedAt time.Time
}
