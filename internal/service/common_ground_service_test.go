package service

import (
	"sync"
	"testing"

	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/pkg/analysis"
	"reconcile-be/pkg/events"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyForCommonGround walks both participants to stage 3 and has both share.
func (h *harness) readyForCommonGround(t *testing.T) uuid.UUID {
	t.Helper()
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)
	h.shareNeeds(t, sessionId, h.a)
	h.shareNeeds(t, sessionId, h.b)
	return sessionId
}

func commonGroundIds(res *dto.CommonGroundResponse) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(res.Items))
	for _, item := range res.Items {
		ids = append(ids, item.Id)
	}
	return ids
}

func TestCommonGroundNotReadyBeforeBothShare(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)
	h.shareNeeds(t, sessionId, h.a)

	res, err := h.commonGround.GetCommonGround(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.Equal(t, dto.CommonGroundNotReady, res.Status)
	assert.False(t, res.NoOverlap)

	confirm, err := h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.a, &dto.ConfirmCommonGroundRequest{NoOverlap: true})
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusBlocked, confirm.Status)
	assert.Equal(t, constant.BlockedCommonGroundNotReady, confirm.Reason)
}

func TestSingleOverlapNeedsBothConfirmations(t *testing.T) {
	h := newHarness(t)
	h.analyzer.overlap = []analysis.OverlapCandidate{{Category: "SAFETY", Need: "Both want money talks to feel safe"}}
	sessionId := h.readyForCommonGround(t)

	cg, err := h.commonGround.GetCommonGround(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	require.Len(t, cg.Items, 1)
	ids := commonGroundIds(cg)

	first, err := h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.a, &dto.ConfirmCommonGroundRequest{CommonGroundIds: ids})
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusOK, first.Status)
	assert.False(t, first.SharedStageCompleted)
	assert.Equal(t, int(gate.StageNeedsMapping), first.Stage)
	assert.Equal(t, 1, h.gateway.count(h.b, events.PartnerCommonGroundConfirmed))

	partnerView, err := h.commonGround.GetCommonGround(h.ctx, sessionId, h.b)
	require.NoError(t, err)
	assert.False(t, partnerView.Items[0].ConfirmedByMe)
	assert.True(t, partnerView.Items[0].ConfirmedByPartner)
	assert.Nil(t, partnerView.Items[0].ConfirmedAt)

	second, err := h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.b, &dto.ConfirmCommonGroundRequest{CommonGroundIds: ids})
	require.NoError(t, err)
	assert.True(t, second.SharedStageCompleted)
	assert.Equal(t, int(gate.StageAgreement), second.Stage)

	for _, user := range []uuid.UUID{h.a, h.b} {
		needsRow := h.row(t, sessionId, user, gate.StageNeedsMapping)
		assert.Equal(t, entity.StageStatusCompleted, needsRow.Status)
		assert.NotNil(t, h.row(t, sessionId, user, gate.StageAgreement))
		assert.Equal(t, 1, h.transitions.countTo(user, gate.StageAgreement))
		assert.Equal(t, 1, h.gateway.count(user, events.StageCompleted))
	}

	final, err := h.commonGround.GetCommonGround(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.NotNil(t, final.Items[0].ConfirmedAt)
}

func TestNoOverlapCompletesUnilaterally(t *testing.T) {
	h := newHarness(t)
	sessionId := h.readyForCommonGround(t)

	cg, err := h.commonGround.GetCommonGround(h.ctx, sessionId, h.b)
	require.NoError(t, err)
	assert.Equal(t, dto.CommonGroundReady, cg.Status)
	assert.True(t, cg.NoOverlap)
	assert.Empty(t, cg.Items)

	res, err := h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.a, &dto.ConfirmCommonGroundRequest{NoOverlap: true})
	require.NoError(t, err)
	assert.True(t, res.SharedStageCompleted)

	for _, user := range []uuid.UUID{h.a, h.b} {
		needsRow := h.row(t, sessionId, user, gate.StageNeedsMapping)
		assert.Equal(t, entity.StageStatusCompleted, needsRow.Status)
		assert.True(t, needsRow.Gates.Satisfied(gate.CommonGroundConfirmed))
		assert.Equal(t, 1, countStage(h.rows(t, sessionId, user), gate.StageAgreement))
	}

	// The partner confirming afterwards changes nothing.
	again, err := h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.b, &dto.ConfirmCommonGroundRequest{NoOverlap: true})
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusOK, again.Status)
	assert.False(t, again.SharedStageCompleted)

	for _, user := range []uuid.UUID{h.a, h.b} {
		assert.Equal(t, 1, countStage(h.rows(t, sessionId, user), gate.StageAgreement))
		assert.Equal(t, 1, h.transitions.countTo(user, gate.StageAgreement))
	}
}

func TestSimultaneousConfirmationCompletesOnce(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := newHarness(t)
		h.analyzer.overlap = []analysis.OverlapCandidate{
			{Category: "SAFETY", Need: "Both want money talks to feel safe"},
			{Category: "RECOGNITION", Need: "Both want effort to be seen"},
		}
		sessionId := h.readyForCommonGround(t)

		cg, err := h.commonGround.GetCommonGround(h.ctx, sessionId, h.a)
		require.NoError(t, err)
		ids := commonGroundIds(cg)

		var wg sync.WaitGroup
		results := make([]*dto.ConfirmCommonGroundResponse, 2)
		errs := make([]error, 2)
		for idx, user := range []uuid.UUID{h.a, h.b} {
			wg.Add(1)
			go func(idx int, user uuid.UUID) {
				defer wg.Done()
				results[idx], errs[idx] = h.commonGround.ConfirmCommonGround(h.ctx, sessionId, user, &dto.ConfirmCommonGroundRequest{CommonGroundIds: ids})
			}(idx, user)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		completions := 0
		for _, r := range results {
			if r.SharedStageCompleted {
				completions++
			}
		}
		assert.Equal(t, 1, completions, "run %d", i)

		for _, user := range []uuid.UUID{h.a, h.b} {
			assert.Equal(t, entity.StageStatusCompleted, h.row(t, sessionId, user, gate.StageNeedsMapping).Status)
			assert.Equal(t, 1, countStage(h.rows(t, sessionId, user), gate.StageAgreement))
			assert.Equal(t, 1, h.transitions.countTo(user, gate.StageAgreement))
		}
	}
}

func TestConfirmRejectsUnknownIds(t *testing.T) {
	h := newHarness(t)
	h.analyzer.overlap = []analysis.OverlapCandidate{{Category: "SAFETY", Need: "Both want money talks to feel safe"}}
	sessionId := h.readyForCommonGround(t)

	_, err := h.commonGround.GetCommonGround(h.ctx, sessionId, h.a)
	require.NoError(t, err)

	_, err = h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.a, &dto.ConfirmCommonGroundRequest{CommonGroundIds: []uuid.UUID{uuid.New()}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrUnknownCommonGround)

	_, err = h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.a, &dto.ConfirmCommonGroundRequest{NoOverlap: true})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	assert.False(t, h.row(t, sessionId, h.a, gate.StageNeedsMapping).Gates.Satisfied(gate.CommonGroundConfirmed))
}

func TestCommonGroundComputedAtMostOnce(t *testing.T) {
	h := newHarness(t)
	h.analyzer.overlap = []analysis.OverlapCandidate{{Category: "MEANING", Need: "Both want the home to feel shared"}}
	sessionId := h.readyForCommonGround(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(user uuid.UUID) {
			defer wg.Done()
			_, err := h.commonGround.GetCommonGround(h.ctx, sessionId, user)
			assert.NoError(t, err)
		}([]uuid.UUID{h.a, h.b}[i%2])
	}
	wg.Wait()

	analyzed, err := h.commonGround.ComputeCommonGround(h.ctx, sessionId)
	require.NoError(t, err)
	assert.True(t, analyzed)

	_, overlapCalls := h.analyzer.calls()
	assert.Equal(t, 1, overlapCalls)

	cg, err := h.commonGround.GetCommonGround(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.Len(t, cg.Items, 1)
}

func TestConfirmAfterStageCompletedIsNoop(t *testing.T) {
	h := newHarness(t)
	sessionId := h.readyForCommonGround(t)

	_, err := h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.a, &dto.ConfirmCommonGroundRequest{NoOverlap: true})
	require.NoError(t, err)

	res, err := h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.a, &dto.ConfirmCommonGroundRequest{NoOverlap: true})
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusOK, res.Status)
	assert.Equal(t, int(gate.StageAgreement), res.Stage)
	assert.False(t, res.SharedStageCompleted)
}
