package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Role            string  `json:"role" validate:"required"`
	SessionType     string  `json:"session_type" validate:"required,oneof=behavioral technical case_study"`
	ExperienceLevel string  `json:"experience_level" validate:"required,oneof=entry mid senior lead"`
	Industry        *string `json:"industry"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type SessionResponse struct {
	Id                 uuid.UUID  `json:"id"`
	Role               string     `json:"role"`
	SessionType        string     `json:"session_type"`
	ExperienceLevel    string     `json:"experience_level"`
	Industry           *string    `json:"industry"`
	Status             string     `json:"status"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	FinalScore         *float64   `json:"final_score"`
	TotalQuestionCount int        `json:"total_question_count"`
}

type ListSessionsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=active completed abandoned"`
	Page   int    `query:"page" validate:"omitempty,min=1"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type ListSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int64             `json:"total"`
}

type InteractionResponse struct {
	Id        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionDetailResponse struct {
	Session      SessionResponse       `json:"session"`
	Interactions []InteractionResponse `json:"interactions"`
}
