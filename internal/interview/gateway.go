package interview

import (
	"context"

	"prepxl-be/internal/entity"
	"prepxl-be/internal/repository/specification"
	"prepxl-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Gateway is the orchestrator's view of durable storage: session lookup,
// interaction history, interaction persistence, and session finalization.
type Gateway interface {
	// GetSession returns nil when the session does not exist.
	GetSession(ctx context.Context, id uuid.UUID) (*entity.InterviewSession, error)
	// ListInteractions returns the session's interactions ordered by their
	// 1-based order.
	ListInteractions(ctx context.Context, sessionID uuid.UUID) ([]*entity.Interaction, error)
	// PersistInteraction stores one interaction and returns the canonical
	// record with its assigned identity.
	PersistInteraction(ctx context.Context, interaction *entity.Interaction) (*entity.Interaction, error)
	// FinalizeSession marks the session completed. Already-persisted
	// interactions are unaffected by a failure here.
	FinalizeSession(ctx context.Context, sessionID uuid.UUID, fin *entity.SessionFinalization) error
}

type storeGateway struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewStoreGateway(uowFactory unitofwork.RepositoryFactory) Gateway {
	return &storeGateway{uowFactory: uowFactory}
}

func (g *storeGateway) GetSession(ctx context.Context, id uuid.UUID) (*entity.InterviewSession, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.InterviewSessionRepository().FindOne(ctx, specification.ByID{ID: id})
}

func (g *storeGateway) ListInteractions(ctx context.Context, sessionID uuid.UUID) ([]*entity.Interaction, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.InteractionRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionID},
		specification.OrderByAsked{},
	)
}

func (g *storeGateway) PersistInteraction(ctx context.Context, interaction *entity.Interaction) (*entity.Interaction, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	// The unique (session_id, "order") index turns an accidental duplicate
	// persist into a loud failure instead of a silent double insert.
	if err := uow.InteractionRepository().Create(ctx, interaction); err != nil {
		return nil, err
	}
	return interaction, nil
}

func (g *storeGateway) FinalizeSession(ctx context.Context, sessionID uuid.UUID, fin *entity.SessionFinalization) error {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.InterviewSessionRepository().Finalize(ctx, sessionID, fin)
}
