package mapper

import (
	"prepxl-be/internal/entity"
	"prepxl-be/internal/model"
)

type InterviewMapper struct{}

func NewInterviewMapper() *InterviewMapper {
	return &InterviewMapper{}
}

// Session Mappers

func (m *InterviewMapper) SessionToEntity(s *model.InterviewSession) *entity.InterviewSession {
	if s == nil {
		return nil
	}

	return &entity.InterviewSession{
		Id:                 s.Id,
		UserId:             s.UserId,
		Role:               s.Role,
		SessionType:        s.SessionType,
		ExperienceLevel:    s.ExperienceLevel,
		Industry:           s.Industry,
		Status:             s.Status,
		StartedAt:          s.StartedAt,
		CompletedAt:        s.CompletedAt,
		FinalScore:         s.FinalScore,
		TotalQuestionCount: s.TotalQuestionCount,
	}
}

func (m *InterviewMapper) SessionToModel(s *entity.InterviewSession) *model.InterviewSession {
	if s == nil {
		return nil
	}

	return &model.InterviewSession{
		Id:                 s.Id,
		UserId:             s.UserId,
		Role:               s.Role,
		SessionType:        s.SessionType,
		ExperienceLevel:    s.ExperienceLevel,
		Industry:           s.Industry,
		Status:             s.Status,
		StartedAt:          s.StartedAt,
		CompletedAt:        s.CompletedAt,
		FinalScore:         s.FinalScore,
		TotalQuestionCount: s.TotalQuestionCount,
	}
}

// Interaction Mappers

func (m *InterviewMapper) InteractionToEntity(i *model.Interaction) *entity.Interaction {
	if i == nil {
		return nil
	}

	return &entity.Interaction{
		Id:        i.Id,
		SessionId: i.SessionId,
		Question:  i.Question,
		Answer:    i.Answer,
		Order:     i.Order,
		CreatedAt: i.CreatedAt,
	}
}

func (m *InterviewMapper) InteractionToModel(i *entity.Interaction) *model.Interaction {
	if i == nil {
		return nil
	}

	return &model.Interaction{
		Id:        i.Id,
		SessionId: i.SessionId,
		Question:  i.Question,
		Answer:    i.Answer,
		Order:     i.Order,
		CreatedAt: i.CreatedAt,
	}
}

func (m *InterviewMapper) InteractionsToEntities(models []*model.Interaction) []*entity.Interaction {
	entities := make([]*entity.Interaction, len(models))
	for i, mdl := range models {
		entities[i] = m.InteractionToEntity(mdl)
	}
	return entities
}
