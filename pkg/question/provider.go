// Package question selects the next interview question for a live session.
package question

import "context"

// Params describes the interview being driven.
type Params struct {
	Role            string
	SessionType     string // "behavioral" | "technical" | "case_study"
	ExperienceLevel string
	Industry        string
}

// Exchange is one prior question/answer pair, ordered oldest first.
type Exchange struct {
	Question string
	Answer   string
}

// Stage is the phase of the interview a question belongs to.
type Stage string

const (
	StageOpening Stage = "opening"
	StageCore    Stage = "core"
	StageClosing Stage = "closing"
)

// StageFor maps the history length to the interview phase. The first
// question is always an opener; the last question before the cap is a
// closer; everything between is core material.
func StageFor(historyLen, maxQuestions int) Stage {
	switch {
	case historyLen == 0:
		return StageOpening
	case historyLen >= maxQuestions-1:
		return StageClosing
	default:
		return StageCore
	}
}

// Provider produces the next question given the session parameters and the
// ordered history of prior exchanges. Implementations must prefer a generic
// fallback question over returning an error: a blocked interview is worse
// UX than a bland question.
type Provider interface {
	Next(ctx context.Context, params Params, history []Exchange) (string, error)
}
