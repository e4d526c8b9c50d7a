package question

import (
	"context"
	"fmt"
	"strings"

	"prepxl-be/pkg/llm"
)

// StaticProvider serves questions from the built-in pools only. Used when no
// LLM provider is configured.
type StaticProvider struct {
	MaxQuestions int
}

var _ Provider = &StaticProvider{}

func NewStaticProvider(maxQuestions int) *StaticProvider {
	return &StaticProvider{MaxQuestions: maxQuestions}
}

func (p *StaticProvider) Next(ctx context.Context, params Params, history []Exchange) (string, error) {
	stage := StageFor(len(history), p.MaxQuestions)
	return pick(params.SessionType, stage, history), nil
}

// Generator asks an LLM for the next question and falls back to the static
// pools when the model is unreachable or returns nothing usable.
type Generator struct {
	provider     llm.LLMProvider
	MaxQuestions int
}

var _ Provider = &Generator{}

func NewGenerator(provider llm.LLMProvider, maxQuestions int) *Generator {
	return &Generator{
		provider:     provider,
		MaxQuestions: maxQuestions,
	}
}

func (g *Generator) Next(ctx context.Context, params Params, history []Exchange) (string, error) {
	stage := StageFor(len(history), g.MaxQuestions)

	text, err := g.provider.Generate(ctx, buildPrompt(params, history, stage), llm.WithTemperature(0.8))
	if err != nil || strings.TrimSpace(text) == "" {
		// Availability over failure: a generic question beats a blocked interview
		return pick(params.SessionType, stage, history), nil
	}

	return sanitize(text), nil
}

func buildPrompt(params Params, history []Exchange, stage Stage) string {
	var b strings.Builder

	b.WriteString("You are a professional interviewer conducting a mock interview.\n")
	fmt.Fprintf(&b, "Interview type: %s. Role: %s. Candidate experience level: %s.\n",
		params.SessionType, params.Role, params.ExperienceLevel)
	if params.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s.\n", params.Industry)
	}

	switch stage {
	case StageOpening:
		b.WriteString("Ask a single opening question that lets the candidate introduce themselves in the context of the role.\n")
	case StageClosing:
		b.WriteString("This is the final question of the interview. Ask a single closing question that lets the candidate summarize or reflect.\n")
	default:
		b.WriteString("Ask a single substantive question appropriate for the middle of the interview. Do not repeat earlier topics.\n")
	}

	if len(history) > 0 {
		b.WriteString("\nQuestions already asked and the candidate's answers:\n")
		for i, h := range history {
			fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, h.Question, truncate(h.Answer, 400))
		}
	}

	b.WriteString("\nRespond with the question text only, no numbering, no preamble.")
	return b.String()
}

// sanitize strips the decoration LLMs tend to add around a bare question.
func sanitize(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "\"")
	if idx := strings.Index(text, "\n"); idx > 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
