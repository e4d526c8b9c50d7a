package service

import (
	"context"

	"prepxl-be/internal/draft"
	"prepxl-be/internal/dto"
	"prepxl-be/internal/interview"
	"prepxl-be/internal/pkg/logger"
	"prepxl-be/internal/pkg/serverutils"
	"prepxl-be/internal/speech"
	"prepxl-be/pkg/question"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type IInterviewService interface {
	Attach(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.InterviewStateResponse, error)
	State(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.InterviewStateResponse, error)
	FetchQuestion(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.QuestionResponse, error)
	StartRecording(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	StopRecording(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	AppendText(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.AppendTextRequest) error
	RecoverDraft(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.RecoverDraftRequest) error
	Advance(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.InterviewStateResponse, error)
	End(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.EndSessionResponse, error)
	DismissError(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	// Relay exposes the capture channel for the WebSocket transport.
	Relay(userId uuid.UUID, sessionId uuid.UUID) (*speech.Relay, error)
}

type interviewService struct {
	registry  *interview.Registry
	gateway   interview.Gateway
	questions question.Provider
	drafts    draft.Store
	sink      interview.EventSink
	logger    logger.ILogger

	// attaching collapses concurrent first attaches for the same session
	// into one Load, so only one orchestrator is ever constructed.
	attaching singleflight.Group
}

func NewInterviewService(
	registry *interview.Registry,
	gateway interview.Gateway,
	questions question.Provider,
	drafts draft.Store,
	sink interview.EventSink,
	logger logger.ILogger,
) IInterviewService {
	return &interviewService{
		registry:  registry,
		gateway:   gateway,
		questions: questions,
		drafts:    drafts,
		sink:      sink,
		logger:    logger,
	}
}

// Attach binds the caller to the live orchestrator for the session, creating
// and loading one on first attach. Re-attaching an existing orchestrator is
// how a reloaded client resumes.
func (s *interviewService) Attach(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.InterviewStateResponse, error) {
	v, err, _ := s.attaching.Do(sessionId.String(), func() (interface{}, error) {
		if o, found := s.registry.Get(sessionId); found {
			return o, nil
		}

		o := interview.NewOrchestrator(sessionId, interview.Config{
			Gateway:    s.gateway,
			Questions:  s.questions,
			Drafts:     s.drafts,
			Recognizer: speech.NewRelay(),
			Sink:       s.sink,
			Logger:     s.logger,
		})
		if err := o.Load(ctx, userId); err != nil {
			o.Dispose()
			return nil, err
		}

		s.registry.Put(sessionId, o)
		return o, nil
	})
	if err != nil {
		return nil, err
	}

	o := v.(*interview.Orchestrator)
	// A joined caller shares the winner's orchestrator; it still has to own
	// the session.
	if o.Session() == nil || o.Session().UserId != userId {
		return nil, serverutils.NewUnauthorized("session belongs to another user")
	}
	s.registry.Touch(sessionId)
	return toStateResponse(o.Snapshot()), nil
}

func (s *interviewService) State(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.InterviewStateResponse, error) {
	o, err := s.resolve(userId, sessionId)
	if err != nil {
		return nil, err
	}
	return toStateResponse(o.Snapshot()), nil
}

func (s *interviewService) FetchQuestion(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.QuestionResponse, error) {
	o, err := s.resolve(userId, sessionId)
	if err != nil {
		return nil, err
	}
	text, err := o.FetchQuestion(ctx)
	if err != nil {
		return nil, err
	}
	snap := o.Snapshot()
	return &dto.QuestionResponse{Question: text, Order: snap.QuestionCount + 1}, nil
}

func (s *interviewService) StartRecording(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	o, err := s.resolve(userId, sessionId)
	if err != nil {
		return err
	}
	return o.StartRecording(ctx)
}

func (s *interviewService) StopRecording(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	o, err := s.resolve(userId, sessionId)
	if err != nil {
		return err
	}
	o.StopRecording()
	return nil
}

func (s *interviewService) AppendText(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.AppendTextRequest) error {
	o, err := s.resolve(userId, sessionId)
	if err != nil {
		return err
	}
	return o.AppendText(req.Text)
}

func (s *interviewService) RecoverDraft(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.RecoverDraftRequest) error {
	o, err := s.resolve(userId, sessionId)
	if err != nil {
		return err
	}
	o.RecoverDraft(req.Accept)
	return nil
}

func (s *interviewService) Advance(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.InterviewStateResponse, error) {
	o, err := s.resolve(userId, sessionId)
	if err != nil {
		return nil, err
	}
	if err := o.Advance(ctx); err != nil {
		return nil, err
	}
	return toStateResponse(o.Snapshot()), nil
}

// End finalizes the session. On success the orchestrator is released; on a
// recoverable finalize failure it stays registered so the caller can still
// read the local state.
func (s *interviewService) End(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.EndSessionResponse, error) {
	o, err := s.resolve(userId, sessionId)
	if err != nil {
		return nil, err
	}
	if err := o.EndSession(ctx); err != nil {
		return nil, err
	}

	snap := o.Snapshot()
	s.registry.Remove(sessionId)
	return &dto.EndSessionResponse{
		Id:                 sessionId,
		Status:             string(snap.State),
		TotalQuestionCount: snap.QuestionCount,
	}, nil
}

func (s *interviewService) DismissError(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	o, err := s.resolve(userId, sessionId)
	if err != nil {
		return err
	}
	o.DismissError()
	return nil
}

func (s *interviewService) Relay(userId uuid.UUID, sessionId uuid.UUID) (*speech.Relay, error) {
	o, err := s.resolve(userId, sessionId)
	if err != nil {
		return nil, err
	}
	relay, ok := o.Recognizer().(*speech.Relay)
	if !ok {
		return nil, serverutils.NewSpeechCaptureError(string(speech.KindUnsupported))
	}
	return relay, nil
}

func (s *interviewService) resolve(userId uuid.UUID, sessionId uuid.UUID) (*interview.Orchestrator, error) {
	o, found := s.registry.Get(sessionId)
	if !found {
		return nil, serverutils.NewNotFound("no live interview for this session, attach first")
	}
	sess := o.Session()
	if sess == nil || sess.UserId != userId {
		return nil, serverutils.NewUnauthorized("session belongs to another user")
	}
	s.registry.Touch(sessionId)
	return o, nil
}

func toStateResponse(snap interview.Snapshot) *dto.InterviewStateResponse {
	res := &dto.InterviewStateResponse{
		SessionId:       snap.SessionId,
		State:           string(snap.State),
		CurrentQuestion: snap.CurrentQuestion,
		QuestionCount:   snap.QuestionCount,
		MaxQuestions:    interview.MaxQuestions,
		AnswerText:      snap.AnswerText,
		InterimText:     snap.InterimText,
		Recording:       snap.Recording,
		SpeechSupported: snap.SpeechSupported,
		Interactions:    make([]dto.InteractionResponse, 0, len(snap.Interactions)),
	}
	if snap.RecoveredDraft != nil {
		res.RecoveredDraft = &dto.DraftInfo{
			QuestionOrder: snap.RecoveredDraft.QuestionOrder,
			Text:          snap.RecoveredDraft.Text,
			SavedAt:       snap.RecoveredDraft.SavedAt,
		}
	}
	if snap.Err != nil {
		res.Error = &dto.ErrorInfo{
			Code:        snap.Err.Code,
			Message:     snap.Err.Message,
			Recoverable: snap.Err.Recoverable,
		}
	}
	for _, it := range snap.Interactions {
		res.Interactions = append(res.Interactions, toInteractionResponse(it))
	}
	return res
}
