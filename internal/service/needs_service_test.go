package service

import (
	"errors"
	"sync"
	"testing"

	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/pkg/analysis"
	"reconcile-be/pkg/events"
	"reconcile-be/pkg/extraction"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrComputeNeedsExtractsOnce(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	_, err := h.messages.RecordMessage(h.ctx, sessionId, h.a, &dto.RecordMessageRequest{Content: "I never know where we stand on money."})
	require.NoError(t, err)

	first, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	second, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)

	needsCalls, _ := h.analyzer.calls()
	assert.Equal(t, 1, needsCalls)
	assert.False(t, first.Extracting)
	require.Len(t, first.Needs, 2)
	assert.Equal(t, first.Needs, second.Needs)
	for _, n := range first.Needs {
		assert.True(t, n.AiSuggested)
		assert.False(t, n.Confirmed)
	}
}

func TestGetOrComputeNeedsReportsExtractingWhileBusy(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.analyzer.started = make(chan struct{})
	h.analyzer.release = make(chan struct{})

	var wg sync.WaitGroup
	var inflight *dto.NeedsResponse
	var inflightErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		inflight, inflightErr = h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	}()

	<-h.analyzer.started

	busy, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.True(t, busy.Extracting)
	assert.Empty(t, busy.Needs)

	close(h.analyzer.release)
	wg.Wait()
	require.NoError(t, inflightErr)
	assert.Len(t, inflight.Needs, 2)

	h.analyzer.mu.Lock()
	h.analyzer.started, h.analyzer.release = nil, nil
	h.analyzer.mu.Unlock()

	after, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.Equal(t, inflight.Needs, after.Needs)

	needsCalls, _ := h.analyzer.calls()
	assert.Equal(t, 1, needsCalls)
}

func TestExtractionFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.analyzer.needsErr = errors.New("model timeout")

	_, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.Error(t, err)
	assert.True(t, apperror.IsRetryable(err))

	h.analyzer.needsErr = nil
	res, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.Len(t, res.Needs, 2)

	needsCalls, _ := h.analyzer.calls()
	assert.Equal(t, 2, needsCalls)
}

func TestConfirmNeedsOutsideNeedsMappingIsBlocked(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	needs, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)

	res, err := h.needs.ConfirmNeeds(h.ctx, sessionId, h.a, &dto.ConfirmNeedsRequest{NeedIds: []uuid.UUID{needs.Needs[0].Id}})
	require.NoError(t, err)
	assert.Equal(t, constant.BlockedWrongStage, res.Reason)
}

func TestConfirmNeedsRejectsForeignIds(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)

	mine, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	theirs, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.b)
	require.NoError(t, err)

	_, err = h.needs.ConfirmNeeds(h.ctx, sessionId, h.a, &dto.ConfirmNeedsRequest{
		NeedIds: []uuid.UUID{mine.Needs[0].Id, theirs.Needs[0].Id},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.ErrorIs(t, err, apperror.ErrNeedsNotOwned)

	after, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	for _, n := range after.Needs {
		assert.False(t, n.Confirmed)
	}
	assert.False(t, h.row(t, sessionId, h.a, gate.StageNeedsMapping).Gates.Satisfied(gate.NeedsConfirmed))
}

func TestConfirmNeedsAppliesCorrectionsFirst(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)

	needs, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	target := needs.Needs[0].Id

	req := &dto.ConfirmNeedsRequest{
		NeedIds:     []uuid.UUID{target},
		Corrections: []dto.NeedCorrection{{NeedId: target, Need: "To talk about money without blame", Category: "fairness"}},
	}
	res, err := h.needs.ConfirmNeeds(h.ctx, sessionId, h.a, req)
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusOK, res.Status)

	firstConfirmedAt := *h.row(t, sessionId, h.a, gate.StageNeedsMapping).Gates[gate.NeedsConfirmed].At

	// Confirming again is a no-op success.
	again, err := h.needs.ConfirmNeeds(h.ctx, sessionId, h.a, req)
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusOK, again.Status)

	after, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	for _, n := range after.Needs {
		if n.Id == target {
			assert.True(t, n.Confirmed)
			assert.Equal(t, "To talk about money without blame", n.Need)
			assert.Equal(t, "FAIRNESS", n.Category)
		} else {
			assert.False(t, n.Confirmed)
		}
	}
	assert.True(t, firstConfirmedAt.Equal(*h.row(t, sessionId, h.a, gate.StageNeedsMapping).Gates[gate.NeedsConfirmed].At))
}

func TestAddNeedIsConfirmedWithFullConfidence(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)

	res, err := h.needs.AddNeed(h.ctx, sessionId, h.a, &dto.AddNeedRequest{Category: "autonomy", Need: "Time alone on weekends"})
	require.NoError(t, err)
	require.NotNil(t, res.Need)
	assert.True(t, res.Need.Confirmed)
	assert.False(t, res.Need.AiSuggested)
	assert.Equal(t, 1.0, res.Need.Confidence)

	// A user-added need means extraction never runs for this participant.
	needs, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.Len(t, needs.Needs, 1)
	needsCalls, _ := h.analyzer.calls()
	assert.Zero(t, needsCalls)
}

func TestConsentRequiresConfirmedNeeds(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)

	needs, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)

	_, err = h.needs.ConsentToShareNeeds(h.ctx, sessionId, h.a, &dto.ConsentNeedsRequest{NeedIds: []uuid.UUID{needs.Needs[0].Id}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNeedsNotConfirmed)
	assert.False(t, h.row(t, sessionId, h.a, gate.StageNeedsMapping).Gates.Satisfied(gate.NeedsShared))
}

func TestConsentWritesOneRecordPerNeed(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)

	h.shareNeeds(t, sessionId, h.a)

	records, err := h.uowFactory.NewUnitOfWork(h.ctx).ConsentRepository().FindByRequester(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.True(t, h.row(t, sessionId, h.a, gate.StageNeedsMapping).Gates.Satisfied(gate.NeedsShared))
	assert.Equal(t, 1, h.gateway.count(h.b, events.PartnerNeedsShared))
}

func TestSecondSharerTriggersCommonGround(t *testing.T) {
	h := newHarness(t)
	h.analyzer.overlap = []analysis.OverlapCandidate{{Category: "SAFETY", Need: "Both want money talks to feel safe"}}
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)

	first := h.shareNeeds(t, sessionId, h.a)
	assert.False(t, first.CommonGroundReady)
	_, overlapCalls := h.analyzer.calls()
	assert.Zero(t, overlapCalls)

	second := h.shareNeeds(t, sessionId, h.b)
	assert.True(t, second.CommonGroundReady)
	assert.False(t, second.CommonGroundPending)

	cg, err := h.commonGround.GetCommonGround(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.Equal(t, dto.CommonGroundReady, cg.Status)
	assert.Len(t, cg.Items, 1)

	_, overlapCalls = h.analyzer.calls()
	assert.Equal(t, 1, overlapCalls)
	assert.Equal(t, 1, h.gateway.count(h.a, events.CommonGroundReady))
	assert.Equal(t, 1, h.gateway.count(h.b, events.CommonGroundReady))
}

func TestCommonGroundFailureDuringConsentLeavesItPending(t *testing.T) {
	h := newHarness(t)
	h.analyzer.overlapErr = errors.New("model unavailable")
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)

	h.shareNeeds(t, sessionId, h.a)
	res := h.shareNeeds(t, sessionId, h.b)
	assert.True(t, res.CommonGroundPending)
	assert.True(t, h.row(t, sessionId, h.b, gate.StageNeedsMapping).Gates.Satisfied(gate.NeedsShared))

	h.analyzer.mu.Lock()
	h.analyzer.overlapErr = nil
	h.analyzer.mu.Unlock()

	cg, err := h.commonGround.GetCommonGround(h.ctx, sessionId, h.b)
	require.NoError(t, err)
	assert.Equal(t, dto.CommonGroundReady, cg.Status)
	assert.True(t, cg.NoOverlap)
}

func TestEmptyExtractionIsNotRepeated(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.analyzer.needs = nil

	first, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	second, err := h.needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)

	needsCalls, _ := h.analyzer.calls()
	assert.Equal(t, 1, needsCalls)
	assert.False(t, first.Extracting)
	assert.Empty(t, first.Needs)
	assert.False(t, second.Extracting)
	assert.Empty(t, second.Needs)
}

type warnRecorder struct {
	mu    sync.Mutex
	warns []string
}

func (l *warnRecorder) Debug(string, string, map[string]interface{}) {}
func (l *warnRecorder) Info(string, string, map[string]interface{})  {}
func (l *warnRecorder) Error(string, string, map[string]interface{}) {}
func (l *warnRecorder) Sync() error                                  { return nil }

func (l *warnRecorder) Warn(module, message string, _ map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, module+": "+message)
}

func TestUnknownNeedCategoryIsLoggedAndFiledUnderConnection(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.analyzer.needs = []analysis.NeedCandidate{
		{Category: "BELONGING", Need: "To feel part of the family plans", Confidence: 0.6},
	}
	log := &warnRecorder{}
	needs := NewNeedsService(h.uowFactory, h.analyzer, extraction.NewMemoryCoordinator(extraction.DefaultTTL), h.commonGround, h.gateway, log)

	res, err := needs.GetOrComputeNeeds(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	require.Len(t, res.Needs, 1)
	assert.Equal(t, "CONNECTION", res.Needs[0].Category)
	assert.Contains(t, log.warns, "NeedsService: Unknown need category, filed under CONNECTION")
}
