package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepxl-be/internal/draft"
	"prepxl-be/internal/dto"
	"prepxl-be/internal/entity"
	"prepxl-be/internal/interview"
	"prepxl-be/internal/pkg/serverutils"
	"prepxl-be/pkg/question"
)

type stubGateway struct {
	session   *entity.InterviewSession
	persisted []*entity.Interaction
	finalized int
}

func (g *stubGateway) GetSession(ctx context.Context, id uuid.UUID) (*entity.InterviewSession, error) {
	if g.session == nil || g.session.Id != id {
		return nil, nil
	}
	cp := *g.session
	return &cp, nil
}

func (g *stubGateway) ListInteractions(ctx context.Context, sessionID uuid.UUID) ([]*entity.Interaction, error) {
	return nil, nil
}

func (g *stubGateway) PersistInteraction(ctx context.Context, interaction *entity.Interaction) (*entity.Interaction, error) {
	stored := *interaction
	stored.Id = uuid.New()
	g.persisted = append(g.persisted, &stored)
	return &stored, nil
}

func (g *stubGateway) FinalizeSession(ctx context.Context, sessionID uuid.UUID, fin *entity.SessionFinalization) error {
	g.finalized++
	return nil
}

func newTestService(gw *stubGateway) (IInterviewService, *interview.Registry) {
	registry := interview.NewRegistry()
	svc := NewInterviewService(
		registry,
		gw,
		question.NewStaticProvider(interview.MaxQuestions),
		draft.NewMemoryStore(),
		nil,
		nil,
	)
	return svc, registry
}

func activeStubSession(userId uuid.UUID) *entity.InterviewSession {
	return &entity.InterviewSession{
		Id:              uuid.New(),
		UserId:          userId,
		Role:            "Data Engineer",
		SessionType:     entity.SessionTypeBehavioral,
		ExperienceLevel: "senior",
		Status:          entity.SessionStatusActive,
		StartedAt:       time.Now(),
	}
}

func TestAttachRegistersOrchestrator(t *testing.T) {
	userId := uuid.New()
	gw := &stubGateway{session: activeStubSession(userId)}
	svc, registry := newTestService(gw)

	res, err := svc.Attach(context.Background(), userId, gw.session.Id)
	require.NoError(t, err)
	assert.Equal(t, "awaiting_answer", res.State)
	assert.Equal(t, interview.MaxQuestions, res.MaxQuestions)

	_, found := registry.Get(gw.session.Id)
	assert.True(t, found)
}

func TestAttachIsIdempotentForExistingSession(t *testing.T) {
	userId := uuid.New()
	gw := &stubGateway{session: activeStubSession(userId)}
	svc, _ := newTestService(gw)

	_, err := svc.Attach(context.Background(), userId, gw.session.Id)
	require.NoError(t, err)

	q, err := svc.FetchQuestion(context.Background(), userId, gw.session.Id)
	require.NoError(t, err)

	// Re-attach (page reload) keeps the live state, including the question
	res, err := svc.Attach(context.Background(), userId, gw.session.Id)
	require.NoError(t, err)
	assert.Equal(t, q.Question, res.CurrentQuestion)
}

// gatedGateway blocks GetSession until the gate closes so attaches can be
// held in flight.
type gatedGateway struct {
	*stubGateway
	loads atomic.Int32
	gate  chan struct{}
}

func (g *gatedGateway) GetSession(ctx context.Context, id uuid.UUID) (*entity.InterviewSession, error) {
	g.loads.Add(1)
	<-g.gate
	return g.stubGateway.GetSession(ctx, id)
}

func TestAttachCollapsesConcurrentFirstAttaches(t *testing.T) {
	userId := uuid.New()
	stub := &stubGateway{session: activeStubSession(userId)}
	gw := &gatedGateway{stubGateway: stub, gate: make(chan struct{})}

	registry := interview.NewRegistry()
	svc := NewInterviewService(
		registry,
		gw,
		question.NewStaticProvider(interview.MaxQuestions),
		draft.NewMemoryStore(),
		nil,
		nil,
	)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Attach(context.Background(), userId, stub.session.Id)
			results <- err
		}()
	}

	assert.Eventually(t, func() bool {
		return gw.loads.Load() == 1
	}, time.Second, 10*time.Millisecond)
	close(gw.gate)

	for i := 0; i < 2; i++ {
		require.NoError(t, <-results)
	}

	// Only one orchestrator was ever loaded; the second attach joined it.
	assert.Equal(t, int32(1), gw.loads.Load())
	o, found := registry.Get(stub.session.Id)
	require.True(t, found)
	t.Cleanup(o.Dispose)
}

func TestAttachRejectsWrongUser(t *testing.T) {
	owner := uuid.New()
	gw := &stubGateway{session: activeStubSession(owner)}
	svc, registry := newTestService(gw)

	_, err := svc.Attach(context.Background(), uuid.New(), gw.session.Id)
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeUnauthorized, appErr.Code)

	// Failed loads are not registered
	_, found := registry.Get(gw.session.Id)
	assert.False(t, found)
}

func TestOperationsRequireAttach(t *testing.T) {
	userId := uuid.New()
	gw := &stubGateway{session: activeStubSession(userId)}
	svc, _ := newTestService(gw)

	_, err := svc.FetchQuestion(context.Background(), userId, gw.session.Id)
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeNotFound, appErr.Code)
}

func TestOperationsRejectForeignUser(t *testing.T) {
	owner := uuid.New()
	gw := &stubGateway{session: activeStubSession(owner)}
	svc, _ := newTestService(gw)

	_, err := svc.Attach(context.Background(), owner, gw.session.Id)
	require.NoError(t, err)

	_, err = svc.FetchQuestion(context.Background(), uuid.New(), gw.session.Id)
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeUnauthorized, appErr.Code)
}

func TestEndReleasesOrchestrator(t *testing.T) {
	userId := uuid.New()
	gw := &stubGateway{session: activeStubSession(userId)}
	svc, registry := newTestService(gw)

	_, err := svc.Attach(context.Background(), userId, gw.session.Id)
	require.NoError(t, err)

	_, err = svc.FetchQuestion(context.Background(), userId, gw.session.Id)
	require.NoError(t, err)
	require.NoError(t, svc.AppendText(context.Background(), userId, gw.session.Id, &dto.AppendTextRequest{Text: "one answer"}))

	_, err = svc.Advance(context.Background(), userId, gw.session.Id)
	require.NoError(t, err)

	res, err := svc.End(context.Background(), userId, gw.session.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalQuestionCount)
	assert.Equal(t, 1, gw.finalized)

	_, found := registry.Get(gw.session.Id)
	assert.False(t, found)
}

func TestRelayAvailableAfterAttach(t *testing.T) {
	userId := uuid.New()
	gw := &stubGateway{session: activeStubSession(userId)}
	svc, _ := newTestService(gw)

	_, err := svc.Attach(context.Background(), userId, gw.session.Id)
	require.NoError(t, err)

	relay, err := svc.Relay(userId, gw.session.Id)
	require.NoError(t, err)
	assert.NotNil(t, relay)
}
