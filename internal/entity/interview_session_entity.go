package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionTypeBehavioral = "behavioral"
	SessionTypeTechnical  = "technical"
	SessionTypeCaseStudy  = "case_study"
)

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

type InterviewSession struct {
	Id                 uuid.UUID
	UserId             uuid.UUID
	Role               string
	SessionType        string
	ExperienceLevel    string
	Industry           *string
	Status             string
	StartedAt          time.Time
	CompletedAt        *time.Time
	FinalScore         *float64
	TotalQuestionCount int
}

func (s *InterviewSession) IsActive() bool {
	return s.Status == SessionStatusActive
}

// SessionFinalization carries the field updates applied at session end.
// A completed session is immutable afterwards.
type SessionFinalization struct {
	Status             string
	CompletedAt        time.Time
	TotalQuestionCount int
	FinalScore         *float64
}
