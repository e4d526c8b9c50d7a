package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepxl-be/internal/draft"
	"prepxl-be/internal/entity"
	"prepxl-be/internal/pkg/serverutils"
	"prepxl-be/internal/speech"
	"prepxl-be/pkg/question"
)

// fakeGateway is an in-memory Gateway with injectable failures.
type fakeGateway struct {
	mu            sync.Mutex
	session       *entity.InterviewSession
	history       []*entity.Interaction
	getErr        error
	persistErr    error
	finalizeErr   error
	persistGate   chan struct{} // when set, PersistInteraction blocks until the gate closes
	persisted     []*entity.Interaction
	finalizations []*entity.SessionFinalization
}

func (g *fakeGateway) GetSession(ctx context.Context, id uuid.UUID) (*entity.InterviewSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	if g.session == nil || g.session.Id != id {
		return nil, nil
	}
	cp := *g.session
	return &cp, nil
}

func (g *fakeGateway) ListInteractions(ctx context.Context, sessionID uuid.UUID) ([]*entity.Interaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*entity.Interaction{}, g.history...), nil
}

func (g *fakeGateway) PersistInteraction(ctx context.Context, interaction *entity.Interaction) (*entity.Interaction, error) {
	g.mu.Lock()
	gate := g.persistGate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.persistErr != nil {
		return nil, g.persistErr
	}
	stored := *interaction
	stored.Id = uuid.New()
	g.persisted = append(g.persisted, &stored)
	return &stored, nil
}

func (g *fakeGateway) FinalizeSession(ctx context.Context, sessionID uuid.UUID, fin *entity.SessionFinalization) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finalizeErr != nil {
		return g.finalizeErr
	}
	g.finalizations = append(g.finalizations, fin)
	return nil
}

// fakeProvider counts calls and can fail or block on demand.
type fakeProvider struct {
	mu    sync.Mutex
	calls int
	err   error
	gate  chan struct{} // when set, Next blocks until the gate closes
}

func (p *fakeProvider) Next(ctx context.Context, params question.Params, history []question.Exchange) (string, error) {
	p.mu.Lock()
	p.calls++
	n := p.calls
	err := p.err
	gate := p.gate
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("question %d", n), nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func activeSession(userID uuid.UUID) *entity.InterviewSession {
	return &entity.InterviewSession{
		Id:              uuid.New(),
		UserId:          userID,
		Role:            "Backend Engineer",
		SessionType:     entity.SessionTypeTechnical,
		ExperienceLevel: "mid",
		Status:          entity.SessionStatusActive,
		StartedAt:       time.Now().Add(-time.Minute),
	}
}

func newTestOrchestrator(t *testing.T, gw *fakeGateway, prov question.Provider, rec speech.Recognizer) *Orchestrator {
	t.Helper()
	if prov == nil {
		prov = &fakeProvider{}
	}
	if rec == nil {
		rec = speech.NewRelay()
	}
	o := NewOrchestrator(gw.session.Id, Config{
		Gateway:    gw,
		Questions:  prov,
		Drafts:     draft.NewMemoryStore(),
		Recognizer: rec,
	})
	t.Cleanup(o.Dispose)
	return o
}

func TestLoadUnauthorizedNeverReachesAwaiting(t *testing.T) {
	owner := uuid.New()
	gw := &fakeGateway{session: activeSession(owner)}
	o := newTestOrchestrator(t, gw, nil, nil)

	err := o.Load(context.Background(), uuid.New())
	require.Error(t, err)
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeUnauthorized, appErr.Code)
	assert.False(t, appErr.Recoverable)
	assert.Equal(t, StateFailed, o.Snapshot().State)
}

func TestLoadNotFound(t *testing.T) {
	gw := &fakeGateway{session: activeSession(uuid.New())}
	o := NewOrchestrator(uuid.New(), Config{Gateway: gw, Questions: &fakeProvider{}, Drafts: draft.NewMemoryStore()})
	defer o.Dispose()

	err := o.Load(context.Background(), uuid.New())
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeNotFound, appErr.Code)
	assert.Equal(t, StateFailed, o.Snapshot().State)
}

func TestLoadInactiveSession(t *testing.T) {
	userID := uuid.New()
	sess := activeSession(userID)
	sess.Status = entity.SessionStatusCompleted
	gw := &fakeGateway{session: sess}
	o := newTestOrchestrator(t, gw, nil, nil)

	err := o.Load(context.Background(), userID)
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeInactiveSession, appErr.Code)
}

func TestLoadResumedSessionSetsCounter(t *testing.T) {
	userID := uuid.New()
	sess := activeSession(userID)
	gw := &fakeGateway{
		session: sess,
		history: []*entity.Interaction{
			{SessionId: sess.Id, Question: "q1", Answer: "a1", Order: 1},
			{SessionId: sess.Id, Question: "q2", Answer: "a2", Order: 2},
		},
	}
	o := newTestOrchestrator(t, gw, nil, nil)

	require.NoError(t, o.Load(context.Background(), userID))
	snap := o.Snapshot()
	assert.Equal(t, StateAwaitingAnswer, snap.State)
	assert.Equal(t, 2, snap.QuestionCount)
	assert.Len(t, snap.Interactions, 2)
}

func TestFetchFailureStaysAwaitingAndRetries(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	prov := &fakeProvider{err: errors.New("llm unreachable")}
	o := newTestOrchestrator(t, gw, prov, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	_, err := o.FetchQuestion(context.Background())
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeQuestionFetchFailed, appErr.Code)
	assert.True(t, appErr.Recoverable)

	snap := o.Snapshot()
	assert.Equal(t, StateAwaitingAnswer, snap.State)
	assert.Empty(t, snap.CurrentQuestion)

	// Retry is the same call again, no reload needed
	prov.mu.Lock()
	prov.err = nil
	prov.mu.Unlock()
	q, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, q)
	assert.Equal(t, q, o.Snapshot().CurrentQuestion)
	assert.Nil(t, o.Snapshot().Err)
}

func TestFullSessionOrdersAreContiguousAndCapped(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	prov := &fakeProvider{}
	o := newTestOrchestrator(t, gw, prov, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	for i := 0; i < MaxQuestions; i++ {
		q, err := o.FetchQuestion(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, q)
		require.NoError(t, o.AppendText(fmt.Sprintf("answer %d", i+1)))
		require.NoError(t, o.Advance(context.Background()))
	}

	require.Len(t, gw.persisted, MaxQuestions)
	for i, it := range gw.persisted {
		assert.Equal(t, i+1, it.Order)
		assert.NotEqual(t, uuid.Nil, it.Id)
	}

	// The 10th Advance finalizes directly, no 11th fetch
	assert.Equal(t, MaxQuestions, prov.callCount())
	require.Len(t, gw.finalizations, 1)
	assert.Equal(t, entity.SessionStatusCompleted, gw.finalizations[0].Status)
	assert.Equal(t, MaxQuestions, gw.finalizations[0].TotalQuestionCount)
	assert.Equal(t, StateCompleted, o.Snapshot().State)

	// Nothing further is accepted
	_, err := o.FetchQuestion(context.Background())
	assert.Error(t, err)
}

func TestResumedSessionContinuesOrderSequence(t *testing.T) {
	userID := uuid.New()
	sess := activeSession(userID)
	gw := &fakeGateway{
		session: sess,
		history: []*entity.Interaction{
			{SessionId: sess.Id, Question: "q1", Answer: "a1", Order: 1},
			{SessionId: sess.Id, Question: "q2", Answer: "a2", Order: 2},
			{SessionId: sess.Id, Question: "q3", Answer: "a3", Order: 3},
		},
	}
	o := newTestOrchestrator(t, gw, nil, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.AppendText("resumed answer"))
	require.NoError(t, o.Advance(context.Background()))

	require.Len(t, gw.persisted, 1)
	assert.Equal(t, 4, gw.persisted[0].Order)
}

func TestAdvanceFailurePreservesAnswer(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	o := newTestOrchestrator(t, gw, nil, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.AppendText("hard-won answer text"))

	gw.mu.Lock()
	gw.persistErr = errors.New("store timeout")
	gw.mu.Unlock()

	before := o.Snapshot().AnswerText
	err = o.Advance(context.Background())
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeInteractionSaveFailed, appErr.Code)
	assert.True(t, appErr.Recoverable)

	snap := o.Snapshot()
	assert.Equal(t, before, snap.AnswerText, "no data loss on failed save")
	assert.Equal(t, StateAwaitingAnswer, snap.State)
	assert.NotEmpty(t, snap.CurrentQuestion)

	// Retrying the same call succeeds with the same order value
	gw.mu.Lock()
	gw.persistErr = nil
	gw.mu.Unlock()
	require.NoError(t, o.Advance(context.Background()))
	require.Len(t, gw.persisted, 1)
	assert.Equal(t, 1, gw.persisted[0].Order)
	assert.Equal(t, "hard-won answer text", gw.persisted[0].Answer)
}

func TestDraftRecoveryOnLoad(t *testing.T) {
	userID := uuid.New()
	sess := activeSession(userID)
	gw := &fakeGateway{session: sess}
	drafts := draft.NewMemoryStore()
	require.NoError(t, drafts.Save(context.Background(), &draft.Draft{
		SessionId:     sess.Id,
		QuestionOrder: 3,
		Text:          "recovered partial answer",
	}))

	o := NewOrchestrator(sess.Id, Config{Gateway: gw, Questions: &fakeProvider{}, Drafts: drafts})
	defer o.Dispose()
	require.NoError(t, o.Load(context.Background(), userID))

	snap := o.Snapshot()
	require.NotNil(t, snap.RecoveredDraft)
	assert.Equal(t, "recovered partial answer", snap.RecoveredDraft.Text)
	assert.Equal(t, 3, snap.RecoveredDraft.QuestionOrder)

	o.RecoverDraft(true)
	snap = o.Snapshot()
	assert.Nil(t, snap.RecoveredDraft)
	assert.Equal(t, "recovered partial answer", snap.AnswerText)
}

func TestDraftDeclinedIsDiscarded(t *testing.T) {
	userID := uuid.New()
	sess := activeSession(userID)
	gw := &fakeGateway{session: sess}
	drafts := draft.NewMemoryStore()
	require.NoError(t, drafts.Save(context.Background(), &draft.Draft{SessionId: sess.Id, Text: "old"}))

	o := NewOrchestrator(sess.Id, Config{Gateway: gw, Questions: &fakeProvider{}, Drafts: drafts})
	defer o.Dispose()
	require.NoError(t, o.Load(context.Background(), userID))

	o.RecoverDraft(false)
	snap := o.Snapshot()
	assert.Nil(t, snap.RecoveredDraft)
	assert.Empty(t, snap.AnswerText)
}

func TestDraftClearedAfterAdvance(t *testing.T) {
	userID := uuid.New()
	sess := activeSession(userID)
	gw := &fakeGateway{session: sess}
	drafts := draft.NewMemoryStore()
	require.NoError(t, drafts.Save(context.Background(), &draft.Draft{SessionId: sess.Id, Text: "pending"}))

	o := NewOrchestrator(sess.Id, Config{Gateway: gw, Questions: &fakeProvider{}, Drafts: drafts})
	defer o.Dispose()
	require.NoError(t, o.Load(context.Background(), userID))

	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	o.RecoverDraft(true)
	require.NoError(t, o.Advance(context.Background()))

	got, err := drafts.Get(context.Background(), sess.Id)
	require.NoError(t, err)
	assert.Nil(t, got, "draft slot cleared after successful advance")
}

// gatedDraftStore signals when a Save enters and holds it until released.
type gatedDraftStore struct {
	inner *draft.MemoryStore
	enter chan struct{}
	gate  chan struct{}
}

func (s *gatedDraftStore) Save(ctx context.Context, d *draft.Draft) error {
	s.enter <- struct{}{}
	<-s.gate
	return s.inner.Save(ctx, d)
}

func (s *gatedDraftStore) Get(ctx context.Context, sessionID uuid.UUID) (*draft.Draft, error) {
	return s.inner.Get(ctx, sessionID)
}

func (s *gatedDraftStore) Clear(ctx context.Context, sessionID uuid.UUID) error {
	return s.inner.Clear(ctx, sessionID)
}

func TestDraftSaveOverlappingAdvanceDoesNotResurrect(t *testing.T) {
	userID := uuid.New()
	sess := activeSession(userID)
	gw := &fakeGateway{session: sess}
	drafts := &gatedDraftStore{
		inner: draft.NewMemoryStore(),
		enter: make(chan struct{}),
		gate:  make(chan struct{}),
	}

	o := NewOrchestrator(sess.Id, Config{Gateway: gw, Questions: &fakeProvider{}, Drafts: drafts})
	defer o.Dispose()
	require.NoError(t, o.Load(context.Background(), userID))

	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.AppendText("my answer"))

	// A snapshot tick starts just before the advance commits
	go o.snapshotDraft()
	<-drafts.enter

	require.NoError(t, o.Advance(context.Background()))
	close(drafts.gate)

	// The late save must not leave a draft behind for a committed answer
	assert.Eventually(t, func() bool {
		got, err := drafts.Get(context.Background(), sess.Id)
		return err == nil && got == nil
	}, time.Second, 10*time.Millisecond)
}

func TestRecordingAccumulatesFinalSegments(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	relay := speech.NewRelay()
	o := newTestOrchestrator(t, gw, nil, relay)
	require.NoError(t, o.Load(context.Background(), userID))

	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.StartRecording(context.Background()))
	assert.Equal(t, StateRecording, o.Snapshot().State)

	relay.Push(speech.Event{Text: "I worked", IsFinal: false})
	relay.Push(speech.Event{Text: "I worked on", IsFinal: false})
	relay.Push(speech.Event{Text: "I worked on payments", IsFinal: true})
	relay.Push(speech.Event{Text: "for two years", IsFinal: true})

	assert.Eventually(t, func() bool {
		return o.Snapshot().AnswerText == "I worked on payments for two years"
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, o.Snapshot().InterimText, "scratch cleared by final segment")
}

func TestInterimReplacesScratch(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	relay := speech.NewRelay()
	o := newTestOrchestrator(t, gw, nil, relay)
	require.NoError(t, o.Load(context.Background(), userID))
	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.StartRecording(context.Background()))

	relay.Push(speech.Event{Text: "first guess", IsFinal: false})
	relay.Push(speech.Event{Text: "second guess", IsFinal: false})

	assert.Eventually(t, func() bool {
		return o.Snapshot().InterimText == "second guess"
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, o.Snapshot().AnswerText)
}

func TestStopRecordingIdempotent(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	relay := speech.NewRelay()
	o := newTestOrchestrator(t, gw, nil, relay)
	require.NoError(t, o.Load(context.Background(), userID))
	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.StartRecording(context.Background()))

	o.StopRecording()
	after := o.Snapshot()
	o.StopRecording()
	again := o.Snapshot()

	assert.Equal(t, after.State, again.State)
	assert.Equal(t, after.AnswerText, again.AnswerText)
	assert.False(t, again.Recording)
	assert.Equal(t, StateAwaitingAnswer, again.State)
}

func TestCaptureErrorIsNonFatal(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	relay := speech.NewRelay()
	o := newTestOrchestrator(t, gw, nil, relay)
	require.NoError(t, o.Load(context.Background(), userID))
	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.StartRecording(context.Background()))

	relay.Fail(speech.KindPermissionDenied)

	assert.Eventually(t, func() bool {
		snap := o.Snapshot()
		return !snap.Recording && snap.Err != nil && snap.Err.Code == serverutils.CodeSpeechCaptureError
	}, time.Second, 10*time.Millisecond)

	// Manual fallback still works
	require.NoError(t, o.AppendText("typed instead"))
	o.DismissError()
	assert.Nil(t, o.Snapshot().Err)
	require.NoError(t, o.Advance(context.Background()))
	assert.Equal(t, "typed instead", gw.persisted[0].Answer)
}

func TestUnsupportedRecognizerRefusesRecording(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	o := NewOrchestrator(gw.session.Id, Config{Gateway: gw, Questions: &fakeProvider{}, Drafts: draft.NewMemoryStore(), Recognizer: speech.Unsupported{}})
	defer o.Dispose()
	require.NoError(t, o.Load(context.Background(), userID))

	snap := o.Snapshot()
	assert.False(t, snap.SpeechSupported)

	err := o.StartRecording(context.Background())
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeSpeechCaptureError, appErr.Code)
	assert.Equal(t, StateAwaitingAnswer, o.Snapshot().State)
}

func TestDisposeDiscardsInFlightFetch(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	gate := make(chan struct{})
	prov := &fakeProvider{gate: gate}
	o := newTestOrchestrator(t, gw, prov, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	done := make(chan struct{})
	go func() {
		_, _ = o.FetchQuestion(context.Background())
		close(done)
	}()

	// Let the fetch reach the provider, then dispose and release it
	assert.Eventually(t, func() bool { return prov.callCount() == 1 }, time.Second, 5*time.Millisecond)
	o.Dispose()
	close(gate)
	<-done

	assert.Empty(t, o.Snapshot().CurrentQuestion, "stale fetch result discarded")
}

func TestOverlappingOpsRejectedDuringFetch(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	gate := make(chan struct{})
	prov := &fakeProvider{gate: gate}
	o := newTestOrchestrator(t, gw, prov, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	fetched := make(chan error, 1)
	go func() {
		_, err := o.FetchQuestion(context.Background())
		fetched <- err
	}()
	assert.Eventually(t, func() bool { return o.Snapshot().InFlight }, time.Second, 5*time.Millisecond)

	_, err := o.FetchQuestion(context.Background())
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeOperationInFlight, appErr.Code)

	err = o.Advance(context.Background())
	appErr, ok = serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeOperationInFlight, appErr.Code)

	close(gate)
	require.NoError(t, <-fetched)
	assert.Equal(t, 1, prov.callCount(), "rejected calls never reached the provider")
}

func TestOverlappingOpsRejectedDuringPersist(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID), persistGate: make(chan struct{})}
	o := newTestOrchestrator(t, gw, nil, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.AppendText("my answer"))

	advanced := make(chan error, 1)
	go func() { advanced <- o.Advance(context.Background()) }()
	assert.Eventually(t, func() bool {
		snap := o.Snapshot()
		return snap.InFlight && snap.State == StateSaving
	}, time.Second, 5*time.Millisecond)

	err = o.EndSession(context.Background())
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeOperationInFlight, appErr.Code)

	// A second advance finds the commit already underway
	err = o.Advance(context.Background())
	appErr, ok = serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeInvalidState, appErr.Code)

	close(gw.persistGate)
	require.NoError(t, <-advanced)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	require.Len(t, gw.persisted, 1, "the guarded calls never double-persisted")
	assert.Equal(t, 1, gw.persisted[0].Order)
}

func TestAdvanceRejectedWithoutQuestion(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	o := newTestOrchestrator(t, gw, nil, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	err := o.Advance(context.Background())
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeInvalidState, appErr.Code)
}

func TestExplicitEndSessionFinalizes(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	o := newTestOrchestrator(t, gw, nil, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.AppendText("one answer"))
	require.NoError(t, o.Advance(context.Background()))

	require.NoError(t, o.EndSession(context.Background()))
	require.Len(t, gw.finalizations, 1)
	assert.Equal(t, 1, gw.finalizations[0].TotalQuestionCount)
	assert.Equal(t, StateCompleted, o.Snapshot().State)

	// Ending twice is rejected
	assert.Error(t, o.EndSession(context.Background()))
}

func TestEndSessionBeforeLoadRejected(t *testing.T) {
	gw := &fakeGateway{session: activeSession(uuid.New())}
	o := newTestOrchestrator(t, gw, nil, nil)

	err := o.EndSession(context.Background())
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeInvalidState, appErr.Code)
	assert.Empty(t, gw.finalizations)
}

func TestFinalizeFailureStillCompletesLocally(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID), finalizeErr: errors.New("store down")}
	o := newTestOrchestrator(t, gw, nil, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	_, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.AppendText("answer"))
	require.NoError(t, o.Advance(context.Background()))

	err = o.EndSession(context.Background())
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, serverutils.CodeFinalizeFailed, appErr.Code)
	assert.True(t, appErr.Recoverable)

	snap := o.Snapshot()
	assert.Equal(t, StateCompleted, snap.State, "caller proceeds with local data")
	assert.Len(t, snap.Interactions, 1, "persisted interactions unaffected")
}

func TestFetchQuestionReturnsExistingQuestion(t *testing.T) {
	userID := uuid.New()
	gw := &fakeGateway{session: activeSession(userID)}
	prov := &fakeProvider{}
	o := newTestOrchestrator(t, gw, prov, nil)
	require.NoError(t, o.Load(context.Background(), userID))

	first, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)
	second, err := o.FetchQuestion(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, prov.callCount(), "no refetch while a question is pending")
}
