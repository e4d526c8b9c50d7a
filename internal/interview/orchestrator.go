// Package interview drives a single live interview session from start to
// finish: question fetching, speech capture, answer persistence, draft
// auto-save, and finalization under partial failure.
package interview

import (
	"context"
	"strings"
	"sync"
	"time"

	"prepxl-be/internal/draft"
	"prepxl-be/internal/entity"
	"prepxl-be/internal/pkg/logger"
	"prepxl-be/internal/pkg/serverutils"
	"prepxl-be/internal/speech"
	"prepxl-be/pkg/events"
	"prepxl-be/pkg/question"

	"github.com/google/uuid"
)

const (
	// MaxQuestions caps the number of interactions per session. Reaching it
	// triggers finalization and overrides any in-flight question fetch.
	MaxQuestions = 10

	opTimeout     = 12 * time.Second
	draftInterval = 5 * time.Second
	draftOpLimit  = 3 * time.Second
)

// EventSink receives lifecycle events; best-effort, never on the hot path.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// Config wires one orchestrator instance.
type Config struct {
	Gateway    Gateway
	Questions  question.Provider
	Drafts     draft.Store
	Recognizer speech.Recognizer
	Sink       EventSink
	Logger     logger.ILogger
}

// Snapshot is a point-in-time copy of the orchestrator's runtime state.
type Snapshot struct {
	State           State
	SessionId       uuid.UUID
	CurrentQuestion string
	QuestionCount   int
	AnswerText      string
	InterimText     string
	Recording       bool
	InFlight        bool
	SpeechSupported bool
	RecoveredDraft  *draft.Draft
	Err             *serverutils.AppError
	Interactions    []*entity.Interaction
}

// Orchestrator owns the state machine for one session. Callers must treat it
// as single-threaded: transition-triggering calls are serialized internally
// and overlapping network-bound calls are rejected via the in-flight guard.
type Orchestrator struct {
	sessionID  uuid.UUID
	gateway    Gateway
	questions  question.Provider
	drafts     draft.Store
	recognizer speech.Recognizer
	sink       EventSink
	logger     logger.ILogger

	mu            sync.Mutex
	state         State
	session       *entity.InterviewSession
	interactions  []*entity.Interaction
	counter       int
	current       string
	segments      []string
	scratch       string
	recording     bool
	inFlight      bool
	fetchGen      int
	draftGen      int
	recovered     *draft.Draft
	lastErr       *serverutils.AppError
	lastDraftText string
	pumpDone      chan struct{}
	draftDone     chan struct{}
	disposed      bool
}

func NewOrchestrator(sessionID uuid.UUID, cfg Config) *Orchestrator {
	log := cfg.Logger
	if log == nil {
		log = nopLogger{}
	}
	rec := cfg.Recognizer
	if rec == nil {
		rec = speech.Unsupported{}
	}

	return &Orchestrator{
		sessionID:  sessionID,
		gateway:    cfg.Gateway,
		questions:  cfg.Questions,
		drafts:     cfg.Drafts,
		recognizer: rec,
		sink:       cfg.Sink,
		logger:     log,
		state:      StateLoading,
	}
}

// Load fetches and authorizes the session, loads existing interactions for
// resumed sessions, and offers any recovered draft. Authorization failures
// are terminal; the orchestrator does not retry them.
func (o *Orchestrator) Load(ctx context.Context, callerID uuid.UUID) error {
	o.mu.Lock()
	if o.state != StateLoading {
		o.mu.Unlock()
		return serverutils.NewInvalidState("session already loaded")
	}
	if o.inFlight {
		o.mu.Unlock()
		return serverutils.NewOperationInFlight()
	}
	o.inFlight = true
	o.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	sess, err := o.gateway.GetSession(opCtx, o.sessionID)
	var appErr *serverutils.AppError
	switch {
	case err != nil:
		appErr = serverutils.NewNotFound("failed to load session")
		appErr.Err = err
	case sess == nil:
		appErr = serverutils.NewNotFound("session not found")
	case sess.UserId != callerID:
		appErr = serverutils.NewUnauthorized("session belongs to another user")
	case !sess.IsActive():
		appErr = serverutils.NewInactiveSession("session is not active")
	}

	var history []*entity.Interaction
	if appErr == nil {
		history, err = o.gateway.ListInteractions(opCtx, o.sessionID)
		if err != nil {
			appErr = serverutils.NewNotFound("failed to load session history")
			appErr.Err = err
		}
	}

	var recovered *draft.Draft
	if appErr == nil && o.drafts != nil {
		recovered, err = o.drafts.Get(opCtx, o.sessionID)
		if err != nil {
			// Draft recovery is best-effort, never blocks the session
			o.logger.Warn("interview", "draft recovery failed", map[string]interface{}{
				"session_id": o.sessionID.String(),
				"error":      err.Error(),
			})
			recovered = nil
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false

	if appErr != nil {
		o.setState(EventFail)
		o.lastErr = appErr
		o.logger.Error("interview", "session load failed", map[string]interface{}{
			"session_id": o.sessionID.String(),
			"code":       appErr.Code,
		})
		return appErr
	}

	o.session = sess
	o.setState(EventSessionLoaded)
	o.setState(EventAuthorized)
	o.interactions = history
	o.counter = len(history)
	o.recovered = recovered
	o.startDraftLoopLocked()

	o.logger.Info("interview", "session attached", map[string]interface{}{
		"session_id": o.sessionID.String(),
		"resumed_at": o.counter,
	})
	return nil
}

// FetchQuestion asks the provider for the next question. A provider failure
// leaves the state machine in AwaitingAnswer with no current question so the
// caller can simply retry.
func (o *Orchestrator) FetchQuestion(ctx context.Context) (string, error) {
	o.mu.Lock()
	if o.state != StateAwaitingAnswer {
		o.mu.Unlock()
		return "", serverutils.NewInvalidState("not awaiting an answer")
	}
	if o.current != "" {
		q := o.current
		o.mu.Unlock()
		return q, nil
	}
	if o.counter >= MaxQuestions {
		o.mu.Unlock()
		return "", serverutils.NewInvalidState("question cap reached")
	}
	if o.inFlight {
		o.mu.Unlock()
		return "", serverutils.NewOperationInFlight()
	}
	o.inFlight = true
	gen := o.fetchGen
	params := o.paramsLocked()
	history := o.historyLocked()
	o.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	text, err := o.questions.Next(opCtx, params, history)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false

	// The cap or session end invalidated this fetch; discard the result
	if gen != o.fetchGen || o.state != StateAwaitingAnswer {
		return "", nil
	}

	if err != nil {
		appErr := serverutils.NewQuestionFetchFailed(err)
		o.lastErr = appErr
		return "", appErr
	}

	o.current = text
	o.lastErr = nil
	return text, nil
}

// StartRecording begins speech capture and subscribes to the recognizer's
// event stream. Capture errors are non-fatal; typed input stays available.
func (o *Orchestrator) StartRecording(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateRecording {
		return nil
	}
	if o.state != StateAwaitingAnswer {
		return serverutils.NewInvalidState("not awaiting an answer")
	}
	if !o.recognizer.Supported() {
		appErr := serverutils.NewSpeechCaptureError(string(speech.KindUnsupported))
		o.lastErr = appErr
		return appErr
	}
	if err := o.recognizer.Start(ctx); err != nil {
		kind := speech.KindAborted
		if capErr, ok := err.(speech.CaptureError); ok {
			kind = capErr.Kind
		}
		appErr := serverutils.NewSpeechCaptureError(string(kind))
		o.lastErr = appErr
		return appErr
	}

	o.pumpDone = make(chan struct{})
	go o.pump(o.pumpDone)
	o.recording = true
	o.setState(EventRecordStart)
	return nil
}

// StopRecording is idempotent: stopping twice equals stopping once.
func (o *Orchestrator) StopRecording() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopRecordingLocked()
}

// AppendText merges manually typed answer text, the fallback capture path.
func (o *Orchestrator) AppendText(text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateAwaitingAnswer && o.state != StateRecording {
		return serverutils.NewInvalidState("not awaiting an answer")
	}
	text = strings.Join(strings.Fields(text), " ")
	if text != "" {
		o.segments = append(o.segments, text)
	}
	return nil
}

// RecoverDraft resolves the offered draft: accept seeds the answer text,
// decline discards it. Either way the offer is consumed.
func (o *Orchestrator) RecoverDraft(accept bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.recovered == nil {
		return
	}
	if accept && o.recovered.Text != "" {
		o.segments = append(o.segments, o.recovered.Text)
	}
	o.recovered = nil
}

// Advance commits the accumulated answer as the next interaction. On
// failure the pre-save state and answer text are preserved and the same
// call can be retried. The 10th successful Advance finalizes the session
// without an intervening fetch.
func (o *Orchestrator) Advance(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateAwaitingAnswer && o.state != StateRecording {
		o.mu.Unlock()
		return serverutils.NewInvalidState("no answer to commit in state " + string(o.state))
	}
	if o.inFlight {
		o.mu.Unlock()
		return serverutils.NewOperationInFlight()
	}
	if o.current == "" {
		o.mu.Unlock()
		return serverutils.NewInvalidState("no current question")
	}

	o.stopRecordingLocked()

	interaction := &entity.Interaction{
		SessionId: o.sessionID,
		Question:  o.current,
		Answer:    o.composeAnswerLocked(),
		Order:     o.counter + 1,
		CreatedAt: time.Now(),
	}

	o.setState(EventAdvance)
	o.setState(EventPersist)
	o.inFlight = true
	userID := o.session.UserId
	o.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	stored, err := o.gateway.PersistInteraction(opCtx, interaction)

	o.mu.Lock()
	o.inFlight = false

	if err != nil {
		// Pre-save state intact: answer text untouched, same order reused on retry
		o.setState(EventPersistFailed)
		appErr := serverutils.NewInteractionSaveFailed(err)
		o.lastErr = appErr
		o.mu.Unlock()
		o.logger.Warn("interview", "interaction persist failed", map[string]interface{}{
			"session_id": o.sessionID.String(),
			"order":      interaction.Order,
			"error":      err.Error(),
		})
		return appErr
	}

	o.interactions = append(o.interactions, stored)
	o.counter++
	o.current = ""
	o.segments = nil
	o.scratch = ""
	o.lastDraftText = ""
	o.recovered = nil
	o.fetchGen++
	o.draftGen++
	o.lastErr = nil
	done := o.counter >= MaxQuestions
	if !done {
		o.setState(EventPersisted)
	}
	order := stored.Order
	o.mu.Unlock()

	o.clearDraft(ctx)
	o.publish(events.NewInteractionRecorded(o.sessionID, userID, order))

	if done {
		return o.EndSession(ctx)
	}
	return nil
}

// EndSession finalizes the session record and transitions to Completed.
// Finalize failure is recoverable-with-caveat: already-persisted
// interactions stay persisted and the caller proceeds with local data.
func (o *Orchestrator) EndSession(ctx context.Context) error {
	o.mu.Lock()
	if o.state == StateCompleted || o.state == StateFailed {
		o.mu.Unlock()
		return serverutils.NewInvalidState("session already ended")
	}
	if o.session == nil {
		o.mu.Unlock()
		return serverutils.NewInvalidState("session not loaded")
	}
	if o.inFlight {
		o.mu.Unlock()
		return serverutils.NewOperationInFlight()
	}

	o.stopRecordingLocked()
	o.stopDraftLoopLocked()
	o.fetchGen++
	o.draftGen++

	now := time.Now()
	duration := now.Sub(o.session.StartedAt)
	fin := &entity.SessionFinalization{
		Status:             entity.SessionStatusCompleted,
		CompletedAt:        now,
		TotalQuestionCount: o.counter,
	}
	total := o.counter
	userID := o.session.UserId
	o.inFlight = true
	o.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	err := o.gateway.FinalizeSession(opCtx, o.sessionID, fin)

	o.mu.Lock()
	o.inFlight = false
	var retErr error
	if err != nil {
		appErr := serverutils.NewFinalizeFailed(err)
		o.lastErr = appErr
		retErr = appErr
	}
	// Completed either way: the interactions are saved, the caller shows
	// results from locally held data
	o.setState(EventComplete)
	o.mu.Unlock()

	o.clearDraft(ctx)
	o.publish(events.NewSessionCompleted(o.sessionID, userID, total, duration))

	o.logger.Info("interview", "session ended", map[string]interface{}{
		"session_id":      o.sessionID.String(),
		"total_questions": total,
		"finalize_error":  err != nil,
	})
	return retErr
}

// DismissError clears a surfaced recoverable error.
func (o *Orchestrator) DismissError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastErr != nil && o.lastErr.Recoverable {
		o.lastErr = nil
	}
}

// Snapshot returns a copy of the runtime state for the caller.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	interactions := make([]*entity.Interaction, len(o.interactions))
	copy(interactions, o.interactions)

	return Snapshot{
		State:           o.state,
		SessionId:       o.sessionID,
		CurrentQuestion: o.current,
		QuestionCount:   o.counter,
		AnswerText:      o.assembleLocked(),
		InterimText:     o.scratch,
		Recording:       o.recording,
		InFlight:        o.inFlight,
		SpeechSupported: o.recognizer.Supported(),
		RecoveredDraft:  o.recovered,
		Err:             o.lastErr,
		Interactions:    interactions,
	}
}

// Dispose releases the orchestrator's owned resources: the draft ticker,
// the capture subscription, and any in-flight fetch result.
func (o *Orchestrator) Dispose() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed {
		return
	}
	o.stopRecordingLocked()
	o.stopDraftLoopLocked()
	o.fetchGen++
	o.draftGen++
	o.disposed = true
}

// Session returns the loaded session record, nil before Load succeeds.
func (o *Orchestrator) Session() *entity.InterviewSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Recognizer returns the capture source feeding this orchestrator. Immutable
// after construction.
func (o *Orchestrator) Recognizer() speech.Recognizer {
	return o.recognizer
}

// internal helpers

func (o *Orchestrator) setState(ev Event) {
	next, err := Transition(o.state, ev)
	if err != nil {
		// Guarded call sites make this unreachable; log loudly if not
		o.logger.Error("interview", "invalid state transition", map[string]interface{}{
			"session_id": o.sessionID.String(),
			"state":      string(o.state),
			"event":      string(ev),
		})
		return
	}
	o.state = next
}

func (o *Orchestrator) paramsLocked() question.Params {
	p := question.Params{
		Role:            o.session.Role,
		SessionType:     o.session.SessionType,
		ExperienceLevel: o.session.ExperienceLevel,
	}
	if o.session.Industry != nil {
		p.Industry = *o.session.Industry
	}
	return p
}

func (o *Orchestrator) historyLocked() []question.Exchange {
	history := make([]question.Exchange, len(o.interactions))
	for i, it := range o.interactions {
		history[i] = question.Exchange{Question: it.Question, Answer: it.Answer}
	}
	return history
}

// assembleLocked joins committed segments with a single separating space.
func (o *Orchestrator) assembleLocked() string {
	joined := strings.Join(o.segments, " ")
	return strings.Join(strings.Fields(joined), " ")
}

// composeAnswerLocked includes the interim scratch so nothing spoken is lost.
func (o *Orchestrator) composeAnswerLocked() string {
	parts := o.assembleLocked()
	scratch := strings.Join(strings.Fields(o.scratch), " ")
	switch {
	case parts == "":
		return scratch
	case scratch == "":
		return parts
	default:
		return parts + " " + scratch
	}
}

func (o *Orchestrator) stopRecordingLocked() {
	if !o.recording {
		return
	}
	o.recognizer.Stop()
	if o.pumpDone != nil {
		close(o.pumpDone)
		o.pumpDone = nil
	}
	o.recording = false
	// Fold any leftover interim text into the answer
	if s := strings.Join(strings.Fields(o.scratch), " "); s != "" {
		o.segments = append(o.segments, s)
	}
	o.scratch = ""
	if o.state == StateRecording {
		o.setState(EventRecordStop)
	}
}

func (o *Orchestrator) pump(done chan struct{}) {
	evs := o.recognizer.Events()
	errs := o.recognizer.Errors()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-evs:
			if !ok {
				return
			}
			o.onTranscript(ev)
		case capErr, ok := <-errs:
			if !ok {
				return
			}
			o.onCaptureError(capErr)
			return
		}
	}
}

func (o *Orchestrator) onTranscript(ev speech.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.recording {
		return
	}
	if ev.IsFinal {
		if s := strings.Join(strings.Fields(ev.Text), " "); s != "" {
			o.segments = append(o.segments, s)
		}
		o.scratch = ""
		return
	}
	o.scratch = ev.Text
}

func (o *Orchestrator) onCaptureError(capErr speech.CaptureError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopRecordingLocked()
	o.lastErr = serverutils.NewSpeechCaptureError(string(capErr.Kind))
	o.logger.Warn("interview", "speech capture error", map[string]interface{}{
		"session_id": o.sessionID.String(),
		"kind":       string(capErr.Kind),
	})
}

func (o *Orchestrator) startDraftLoopLocked() {
	if o.drafts == nil || o.draftDone != nil {
		return
	}
	o.draftDone = make(chan struct{})
	go o.draftLoop(o.draftDone)
}

func (o *Orchestrator) stopDraftLoopLocked() {
	if o.draftDone != nil {
		close(o.draftDone)
		o.draftDone = nil
	}
}

func (o *Orchestrator) draftLoop(done chan struct{}) {
	ticker := time.NewTicker(draftInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			o.snapshotDraft()
		}
	}
}

func (o *Orchestrator) snapshotDraft() {
	o.mu.Lock()
	text := o.composeAnswerLocked()
	order := o.counter + 1
	gen := o.draftGen
	changed := text != "" && text != o.lastDraftText
	if changed {
		o.lastDraftText = text
	}
	o.mu.Unlock()
	if !changed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), draftOpLimit)
	defer cancel()
	err := o.drafts.Save(ctx, &draft.Draft{
		SessionId:     o.sessionID,
		QuestionOrder: order,
		Text:          text,
		SavedAt:       time.Now(),
	})
	if err != nil {
		o.logger.Warn("interview", "draft snapshot failed", map[string]interface{}{
			"session_id": o.sessionID.String(),
			"error":      err.Error(),
		})
		return
	}

	// An advance can land while the save is in flight; its answer is already
	// persisted, so a draft written after its clear must not survive.
	o.mu.Lock()
	stale := gen != o.draftGen
	o.mu.Unlock()
	if stale {
		o.clearDraft(context.Background())
	}
}

func (o *Orchestrator) clearDraft(ctx context.Context) {
	if o.drafts == nil {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, draftOpLimit)
	defer cancel()
	if err := o.drafts.Clear(opCtx, o.sessionID); err != nil {
		o.logger.Warn("interview", "draft clear failed", map[string]interface{}{
			"session_id": o.sessionID.String(),
			"error":      err.Error(),
		})
	}
}

func (o *Orchestrator) publish(event events.Event) {
	if o.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), draftOpLimit)
	defer cancel()
	if err := o.sink.Publish(ctx, event); err != nil {
		o.logger.Warn("interview", "event publish failed", map[string]interface{}{
			"session_id": o.sessionID.String(),
			"event":      event.EventType(),
		})
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }
