package service

import (
	"context"
	"sync"
	"testing"

	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/internal/repository/memory"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/pkg/analysis"
	"reconcile-be/pkg/extraction"
	"reconcile-be/pkg/gate"
	"reconcile-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	mu               sync.Mutex
	needs            []analysis.NeedCandidate
	overlap          []analysis.OverlapCandidate
	needsErr         error
	overlapErr       error
	transitionErr    error
	findNeedsCalls   int
	findOverlapCalls int

	// started and release let a test hold FindNeeds in flight.
	started chan struct{}
	release chan struct{}
}

func (f *fakeAnalyzer) FindNeeds(ctx context.Context, history []llm.Message) ([]analysis.NeedCandidate, error) {
	f.mu.Lock()
	f.findNeedsCalls++
	started, release := f.started, f.release
	needs, err := f.needs, f.needsErr
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	out := make([]analysis.NeedCandidate, len(needs))
	copy(out, needs)
	return out, nil
}

func (f *fakeAnalyzer) FindOverlap(ctx context.Context, needsA, needsB []analysis.NeedSummary) ([]analysis.OverlapCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findOverlapCalls++
	if f.overlapErr != nil {
		return nil, f.overlapErr
	}
	out := make([]analysis.OverlapCandidate, len(f.overlap))
	copy(out, f.overlap)
	return out, nil
}

func (f *fakeAnalyzer) TransitionMessage(ctx context.Context, tc analysis.TransitionContext) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transitionErr != nil {
		return "", f.transitionErr
	}
	return "Welcome to " + tc.To.String(), nil
}

func (f *fakeAnalyzer) calls() (needs, overlap int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findNeedsCalls, f.findOverlapCalls
}

type sentEvent struct {
	SessionId uuid.UUID
	Target    uuid.UUID
	Event     string
	Payload   map[string]interface{}
}

type recordingGateway struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (g *recordingGateway) Notify(_ context.Context, sessionId, targetUserId uuid.UUID, eventName string, payload map[string]interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentEvent{SessionId: sessionId, Target: targetUserId, Event: eventName, Payload: payload})
}

func (g *recordingGateway) PublishSessionEvent(ctx context.Context, session *entity.Session, eventName string, payload map[string]interface{}) {
	for _, id := range session.ParticipantIds() {
		g.Notify(ctx, session.Id, id, eventName, payload)
	}
}

func (g *recordingGateway) Flush() {}

func (g *recordingGateway) count(target uuid.UUID, event string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, e := range g.sent {
		if e.Target == target && e.Event == event {
			n++
		}
	}
	return n
}

type transitionCall struct {
	SessionId uuid.UUID
	UserId    uuid.UUID
	From, To  gate.Stage
}

type recordingTransitions struct {
	mu    sync.Mutex
	calls []transitionCall
}

func (r *recordingTransitions) RequestTransition(_ context.Context, sessionId, userId uuid.UUID, from, to gate.Stage, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, transitionCall{SessionId: sessionId, UserId: userId, From: from, To: to})
}

func (r *recordingTransitions) countTo(userId uuid.UUID, to gate.Stage) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.UserId == userId && c.To == to {
			n++
		}
	}
	return n
}

type harness struct {
	ctx          context.Context
	store        *memory.Store
	uowFactory   unitofwork.RepositoryFactory
	analyzer     *fakeAnalyzer
	gateway      *recordingGateway
	transitions  *recordingTransitions
	sessions     ISessionService
	stages       IStageService
	needs        INeedsService
	commonGround ICommonGroundService
	messages     IMessageService

	a, b uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	log := logger.NewNopLogger()
	analyzer := &fakeAnalyzer{
		needs: []analysis.NeedCandidate{
			{Category: "SAFETY", Need: "To feel safe raising money worries", Evidence: []string{"I get anxious"}, Confidence: 0.8},
			{Category: "RECOGNITION", Need: "To have effort noticed", Evidence: []string{"nobody sees it"}, Confidence: 0.7},
		},
	}
	gateway := &recordingGateway{}
	transitions := &recordingTransitions{}
	coordinator := extraction.NewMemoryCoordinator(extraction.DefaultTTL)

	commonGround := NewCommonGroundService(factory, analyzer, coordinator, gateway, transitions, log)

	return &harness{
		ctx:          context.Background(),
		store:        store,
		uowFactory:   factory,
		analyzer:     analyzer,
		gateway:      gateway,
		transitions:  transitions,
		sessions:     NewSessionService(factory, nil, gateway, log),
		stages:       NewStageService(factory, gateway, transitions, log),
		needs:        NewNeedsService(factory, analyzer, coordinator, commonGround, gateway, log),
		commonGround: commonGround,
		messages:     NewMessageService(factory),
		a:            uuid.New(),
		b:            uuid.New(),
	}
}

// invite creates a session by a and sends the invitation.
func (h *harness) invite(t *testing.T) *dto.SessionResponse {
	t.Helper()
	session, err := h.sessions.CreateSession(h.ctx, h.a, &dto.CreateSessionRequest{
		InviteeEmail: "partner@example.com",
		InviteeName:  "Sam",
		InviterName:  "Alex",
	})
	require.NoError(t, err)

	res, err := h.sessions.ConfirmInvitation(h.ctx, session.Id, h.a)
	require.NoError(t, err)
	require.Equal(t, "ok", res.Status)
	return session
}

// startSession returns an ACTIVE session with both participants at stage 0
// and their compact signed.
func (h *harness) startSession(t *testing.T) uuid.UUID {
	t.Helper()
	session := h.invite(t)

	_, err := h.sessions.AcceptInvitation(h.ctx, session.InvitationCode, h.b)
	require.NoError(t, err)

	res, err := h.sessions.SignCompact(h.ctx, session.Id, h.b)
	require.NoError(t, err)
	require.Equal(t, "ok", res.Status)

	return session.Id
}

func (h *harness) mustAdvance(t *testing.T, sessionId, userId uuid.UUID, want gate.Stage) {
	t.Helper()
	res, err := h.stages.Advance(h.ctx, sessionId, userId)
	require.NoError(t, err)
	require.Equal(t, "ok", res.Status, "advance blocked: %s %v", res.Reason, res.UnsatisfiedGates)
	require.Equal(t, int(want), res.Stage)
}

func (h *harness) mustRecord(t *testing.T, sessionId, userId uuid.UUID, stage gate.Stage, names ...gate.Name) {
	t.Helper()
	for _, name := range names {
		res, err := h.stages.RecordGate(h.ctx, sessionId, userId, stage, name)
		require.NoError(t, err)
		require.Equal(t, "ok", res.Status, "record %s blocked: %s", name, res.Reason)
	}
}

// reachNeedsMapping walks both participants from stage 0 to stage 3.
func (h *harness) reachNeedsMapping(t *testing.T, sessionId uuid.UUID) {
	t.Helper()
	for _, user := range []uuid.UUID{h.a, h.b} {
		h.mustAdvance(t, sessionId, user, gate.StageWitness)
		h.mustRecord(t, sessionId, user, gate.StageWitness, gate.FeelHeardConfirmed)
		h.mustAdvance(t, sessionId, user, gate.StagePerspectiveStretch)
		h.mustRecord(t, sessionId, user, gate.StagePerspectiveStretch,
			gate.EmpathyDraftReady, gate.EmpathyConsented, gate.PartnerValidated)
		h.mustAdvance(t, sessionId, user, gate.StageNeedsMapping)
	}
}

// shareNeeds extracts, confirms and shares all of a participant's needs.
func (h *harness) shareNeeds(t *testing.T, sessionId, userId uuid.UUID) *dto.ConsentNeedsResponse {
	t.Helper()
	needs, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, userId)
	require.NoError(t, err)
	require.NotEmpty(t, needs.Needs)

	ids := make([]uuid.UUID, 0, len(needs.Needs))
	for _, n := range needs.Needs {
		ids = append(ids, n.Id)
	}

	confirm, err := h.needs.ConfirmNeeds(h.ctx, sessionId, userId, &dto.ConfirmNeedsRequest{NeedIds: ids})
	require.NoError(t, err)
	require.Equal(t, "ok", confirm.Status)

	consent, err := h.needs.ConsentToShareNeeds(h.ctx, sessionId, userId, &dto.ConsentNeedsRequest{NeedIds: ids})
	require.NoError(t, err)
	require.Equal(t, "ok", consent.Status)
	return consent
}

func (h *harness) rows(t *testing.T, sessionId, userId uuid.UUID) []*entity.StageProgress {
	t.Helper()
	all, err := h.uowFactory.NewUnitOfWork(h.ctx).StageProgressRepository().FindAllBySession(h.ctx, sessionId)
	require.NoError(t, err)
	var out []*entity.StageProgress
	for _, p := range all {
		if p.UserId == userId {
			out = append(out, p)
		}
	}
	return out
}

func (h *harness) row(t *testing.T, sessionId, userId uuid.UUID, stage gate.Stage) *entity.StageProgress {
	t.Helper()
	p, err := h.uowFactory.NewUnitOfWork(h.ctx).StageProgressRepository().FindByStage(h.ctx, sessionId, userId, stage)
	require.NoError(t, err)
	return p
}

func (h *harness) session(t *testing.T, sessionId uuid.UUID) *entity.Session {
	t.Helper()
	s, err := h.uowFactory.NewUnitOfWork(h.ctx).SessionRepository().FindById(h.ctx, sessionId)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func countStage(rows []*entity.StageProgress, stage gate.Stage) int {
	n := 0
	for _, r := range rows {
		if r.Stage == stage {
			n++
		}
	}
	return n
}
