package service

import (
	"context"
	"time"

	"prepxl-be/internal/dto"
	"prepxl-be/internal/entity"
	"prepxl-be/internal/pkg/serverutils"
	"prepxl-be/internal/repository/specification"
	"prepxl-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ISessionService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	List(ctx context.Context, userId uuid.UUID, req *dto.ListSessionsRequest) (*dto.ListSessionsResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.SessionDetailResponse, error)
	Abandon(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
	}
}

func (s *sessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session := entity.InterviewSession{
		Id:              uuid.New(),
		UserId:          userId,
		Role:            req.Role,
		SessionType:     req.SessionType,
		ExperienceLevel: req.ExperienceLevel,
		Industry:        req.Industry,
		Status:          entity.SessionStatusActive,
		StartedAt:       time.Now(),
	}

	if err := uow.InterviewSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (s *sessionService) List(ctx context.Context, userId uuid.UUID, req *dto.ListSessionsRequest) (*dto.ListSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.InterviewSessionRepository()

	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
	}
	if req.Status != "" {
		specs = append(specs, specification.ByStatus{Status: req.Status})
	}

	total, err := repo.Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}
	specs = append(specs,
		specification.OrderBy{Field: "started_at", Desc: true},
		specification.Pagination{Offset: (page - 1) * limit, Limit: limit},
	)

	sessions, err := repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	result := make([]dto.SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, toSessionResponse(sess))
	}

	return &dto.ListSessionsResponse{Sessions: result, Total: total}, nil
}

func (s *sessionService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.SessionDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.InterviewSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, serverutils.NewNotFound("session not found")
	}
	if session.UserId != userId {
		return nil, serverutils.NewUnauthorized("session belongs to another user")
	}

	interactions, err := uow.InteractionRepository().FindAll(ctx,
		specification.BySessionID{SessionID: id},
		specification.OrderByAsked{},
	)
	if err != nil {
		return nil, err
	}

	detail := dto.SessionDetailResponse{
		Session:      toSessionResponse(session),
		Interactions: make([]dto.InteractionResponse, 0, len(interactions)),
	}
	for _, it := range interactions {
		detail.Interactions = append(detail.Interactions, toInteractionResponse(it))
	}
	return &detail, nil
}

// Abandon marks an active session abandoned. Already-ended sessions are
// reported as a conflict rather than silently rewritten.
func (s *sessionService) Abandon(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.InterviewSessionRepository()

	session, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if session == nil {
		return serverutils.NewNotFound("session not found")
	}
	if session.UserId != userId {
		return serverutils.NewUnauthorized("session belongs to another user")
	}
	if !session.IsActive() {
		return serverutils.NewInactiveSession("session is not active")
	}

	return repo.UpdateStatus(ctx, id, entity.SessionStatusActive, entity.SessionStatusAbandoned)
}

func toSessionResponse(sess *entity.InterviewSession) dto.SessionResponse {
	return dto.SessionResponse{
		Id:                 sess.Id,
		Role:               sess.Role,
		SessionType:        sess.SessionType,
		ExperienceLevel:    sess.ExperienceLevel,
		Industry:           sess.Industry,
		Status:             sess.Status,
		StartedAt:          sess.StartedAt,
		CompletedAt:        sess.CompletedAt,
		FinalScore:         sess.FinalScore,
		TotalQuestionCount: sess.TotalQuestionCount,
	}
}

func toInteractionResponse(it *entity.Interaction) dto.InteractionResponse {
	return dto.InteractionResponse{
		Id:        it.Id,
		Question:  it.Question,
		Answer:    it.Answer,
		Order:     it.Order,
		CreatedAt: it.CreatedAt,
	}
}
