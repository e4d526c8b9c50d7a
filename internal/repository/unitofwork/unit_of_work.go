package unitofwork

import (
	"context"

	"prepxl-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	InterviewSessionRepository() contract.InterviewSessionRepository
	InteractionRepository() contract.InteractionRepository
}
