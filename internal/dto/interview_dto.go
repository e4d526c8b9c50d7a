package dto

import (
	"time"

	"github.com/google/uuid"
)

type AppendTextRequest struct {
	Text string `json:"text" validate:"required"`
}

type RecoverDraftRequest struct {
	Accept bool `json:"accept"`
}

// SpeechMessage is the WebSocket payload relayed from the browser's
// recognition session. Either a transcript chunk or an error, never both.
type SpeechMessage struct {
	Type    string `json:"type" validate:"required,oneof=transcript error"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
	Kind    string `json:"kind"`
}

type QuestionResponse struct {
	Question string `json:"question"`
	Order    int    `json:"order"`
}

type ErrorInfo struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

type DraftInfo struct {
	QuestionOrder int       `json:"question_order"`
	Text          string    `json:"text"`
	SavedAt       time.Time `json:"saved_at"`
}

// InterviewStateResponse mirrors the orchestrator snapshot for the client.
type InterviewStateResponse struct {
	SessionId       uuid.UUID             `json:"session_id"`
	State           string                `json:"state"`
	CurrentQuestion string                `json:"current_question"`
	QuestionCount   int                   `json:"question_count"`
	MaxQuestions    int                   `json:"max_questions"`
	AnswerText      string                `json:"answer_text"`
	InterimText     string                `json:"interim_text"`
	Recording       bool                  `json:"recording"`
	SpeechSupported bool                  `json:"speech_supported"`
	RecoveredDraft  *DraftInfo            `json:"recovered_draft"`
	Error           *ErrorInfo            `json:"error"`
	Interactions    []InteractionResponse `json:"interactions"`
}

type EndSessionResponse struct {
	Id                 uuid.UUID `json:"id"`
	Status             string    `json:"status"`
	TotalQuestionCount int       `json:"total_question_count"`
}
