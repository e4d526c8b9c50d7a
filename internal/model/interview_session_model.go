package model

import (
	"time"

	"github.com/google/uuid"
)

type InterviewSession struct {
	Id                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId             uuid.UUID  `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Role               string     `gorm:"type:text;not null"`
	SessionType        string     `gorm:"type:text;not null"`
	ExperienceLevel    string     `gorm:"type:text;not null"`
	Industry           *string    `gorm:"type:text"`
	Status             string     `gorm:"type:text;not null;default:'active';index"`
	StartedAt          time.Time  `gorm:"not null"`
	CompletedAt        *time.Time `gorm:""`
	FinalScore         *float64   `gorm:""`
	TotalQuestionCount int        `gorm:"not null;default:0"`
	CreatedAt          time.Time  `gorm:"autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}
