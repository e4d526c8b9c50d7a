package contract

import (
	"context"

	"prepxl-be/internal/entity"
	"prepxl-be/internal/repository/specification"

	"github.com/google/uuid"
)

type InterviewSessionRepository interface {
	Create(ctx context.Context, session *entity.InterviewSession) error
	// Finalize applies the end-of-session field updates. The WHERE clause
	// includes status=active so a completed session is never rewritten.
	Finalize(ctx context.Context, id uuid.UUID, fin *entity.SessionFinalization) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.InterviewSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InterviewSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
