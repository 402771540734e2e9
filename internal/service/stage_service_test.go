package service

import (
	"testing"

	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/pkg/events"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatorAdvancesWhileInvited(t *testing.T) {
	h := newHarness(t)
	session := h.invite(t)

	res, err := h.stages.Advance(h.ctx, session.Id, h.a)
	require.NoError(t, err)

	assert.Equal(t, constant.ResultStatusOK, res.Status)
	assert.Equal(t, int(gate.StageWitness), res.Stage)
	assert.Equal(t, string(entity.StageStatusInProgress), res.StageStatus)
	assert.Equal(t, entity.StageStatusCompleted, h.row(t, session.Id, h.a, gate.StageCompact).Status)
	assert.Equal(t, 1, h.transitions.countTo(h.a, gate.StageWitness))
}

func TestCreatorCannotAdvancePastWitnessWhileInvited(t *testing.T) {
	h := newHarness(t)
	session := h.invite(t)

	h.mustAdvance(t, session.Id, h.a, gate.StageWitness)

	res, err := h.stages.Advance(h.ctx, session.Id, h.a)
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusBlocked, res.Status)
	assert.Equal(t, constant.BlockedSessionNotActive, res.Reason)
}

func TestInviteeBlockedWhileInvited(t *testing.T) {
	h := newHarness(t)
	session := h.invite(t)

	_, err := h.sessions.AcceptInvitation(h.ctx, session.InvitationCode, h.b)
	require.NoError(t, err)

	res, err := h.stages.Advance(h.ctx, session.Id, h.b)
	require.NoError(t, err)

	assert.Equal(t, constant.ResultStatusBlocked, res.Status)
	assert.Equal(t, constant.BlockedSessionNotActive, res.Reason)
	assert.Len(t, h.rows(t, session.Id, h.b), 1)
}

func TestAdvanceWithUnsatisfiedGatesIsNoOp(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.mustAdvance(t, sessionId, h.a, gate.StageWitness)

	before := h.rows(t, sessionId, h.a)

	first, err := h.stages.Advance(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	second, err := h.stages.Advance(h.ctx, sessionId, h.a)
	require.NoError(t, err)

	assert.Equal(t, constant.ResultStatusBlocked, first.Status)
	assert.Equal(t, constant.BlockedGatesUnsatisfied, first.Reason)
	assert.Equal(t, []string{string(gate.FeelHeardConfirmed)}, first.UnsatisfiedGates)
	assert.Equal(t, first, second)

	after := h.rows(t, sessionId, h.a)
	assert.Equal(t, len(before), len(after))
	assert.Equal(t, entity.StageStatusInProgress, h.row(t, sessionId, h.a, gate.StageWitness).Status)
}

func TestStagesAreStrictlyIncreasing(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)

	for _, user := range []uuid.UUID{h.a, h.b} {
		rows := h.rows(t, sessionId, user)
		require.Len(t, rows, 4)
		open := 0
		for i, r := range rows {
			assert.Equal(t, gate.Stage(i), r.Stage)
			if !r.IsCompleted() {
				open++
			}
		}
		assert.Equal(t, 1, open)
	}
}

func TestAdvanceNotifiesPartner(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)

	h.mustAdvance(t, sessionId, h.a, gate.StageWitness)

	assert.Equal(t, 1, h.gateway.count(h.b, events.PartnerAdvanced))
	assert.Zero(t, h.gateway.count(h.a, events.PartnerAdvanced))
}

func TestNeedsMappingRequiresPartnerCompleted(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)

	// Give a every stage 3 gate while b is still open at stage 3.
	h.shareNeeds(t, sessionId, h.a)
	progress := h.row(t, sessionId, h.a, gate.StageNeedsMapping)
	require.NoError(t, progress.Gates.Mark(gate.CommonGroundConfirmed, *progress.StartedAt))

	uow := h.uowFactory.NewUnitOfWork(h.ctx)
	require.NoError(t, uow.StageProgressRepository().Update(h.ctx, progress))

	res, err := h.stages.Advance(h.ctx, sessionId, h.a)
	require.NoError(t, err)

	assert.Equal(t, constant.ResultStatusBlocked, res.Status)
	assert.Equal(t, constant.BlockedPartnerNotReady, res.Reason)
	require.NotNil(t, res.PartnerReady)
	assert.False(t, *res.PartnerReady)
	assert.Nil(t, h.row(t, sessionId, h.a, gate.StageAgreement))
}

func TestAdvanceAtTerminalStageIsBlocked(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)
	h.shareNeeds(t, sessionId, h.a)
	h.shareNeeds(t, sessionId, h.b)

	_, err := h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.a, &dto.ConfirmCommonGroundRequest{NoOverlap: true})
	require.NoError(t, err)

	res, err := h.stages.Advance(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.Equal(t, constant.BlockedTerminalStage, res.Reason)
	assert.Equal(t, int(gate.StageAgreement), res.Stage)
}

func TestRecordGateRejectsGatesOwnedByOtherFlows(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)

	tests := []struct {
		stage gate.Stage
		name  gate.Name
	}{
		{gate.StageCompact, gate.CompactSigned},
		{gate.StageNeedsMapping, gate.NeedsShared},
		{gate.StageWitness, gate.AgreementCreated},
	}
	for _, tt := range tests {
		_, err := h.stages.RecordGate(h.ctx, sessionId, h.a, tt.stage, tt.name)
		assert.True(t, apperror.IsValidation(err), "%s/%s", tt.stage, tt.name)
	}
}

func TestRecordGateAtWrongStageIsBlocked(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)

	res, err := h.stages.RecordGate(h.ctx, sessionId, h.a, gate.StageWitness, gate.FeelHeardConfirmed)
	require.NoError(t, err)
	assert.Equal(t, constant.BlockedWrongStage, res.Reason)
	assert.Equal(t, int(gate.StageCompact), res.Stage)
}

func TestRecordGateMovesRowToGatePending(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.mustAdvance(t, sessionId, h.a, gate.StageWitness)

	res, err := h.stages.RecordGate(h.ctx, sessionId, h.a, gate.StageWitness, gate.FeelHeardConfirmed)
	require.NoError(t, err)

	assert.Equal(t, string(entity.StageStatusGatePending), res.StageStatus)
	assert.Equal(t, 1, h.gateway.count(h.b, events.PartnerGateSatisfied))
}

func TestAgreementFromBothResolvesSession(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.reachNeedsMapping(t, sessionId)
	h.shareNeeds(t, sessionId, h.a)
	h.shareNeeds(t, sessionId, h.b)
	_, err := h.commonGround.ConfirmCommonGround(h.ctx, sessionId, h.b, &dto.ConfirmCommonGroundRequest{NoOverlap: true})
	require.NoError(t, err)

	agreement := []gate.Name{gate.StrategiesSubmitted, gate.RankingsSubmitted, gate.AgreementCreated}
	h.mustRecord(t, sessionId, h.a, gate.StageAgreement, agreement...)
	assert.Equal(t, entity.SessionStatusActive, h.session(t, sessionId).Status)

	h.mustRecord(t, sessionId, h.b, gate.StageAgreement, agreement...)

	session := h.session(t, sessionId)
	assert.Equal(t, entity.SessionStatusResolved, session.Status)
	assert.NotNil(t, session.ResolvedAt)
	for _, user := range []uuid.UUID{h.a, h.b} {
		assert.Equal(t, entity.StageStatusCompleted, h.row(t, sessionId, user, gate.StageAgreement).Status)
		assert.Equal(t, 1, h.gateway.count(user, events.SessionResolved))
	}
}

func TestGetProgressShowsBothParticipants(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)
	h.mustAdvance(t, sessionId, h.a, gate.StageWitness)

	res, err := h.stages.GetProgress(h.ctx, sessionId, h.b)
	require.NoError(t, err)

	assert.Equal(t, string(entity.SessionStatusActive), res.SessionStatus)
	assert.Equal(t, h.b, res.Me.UserId)
	assert.Equal(t, "B", res.Me.Slot)
	assert.Equal(t, int(gate.StageCompact), res.Me.Stage)
	require.NotNil(t, res.Partner)
	assert.Equal(t, int(gate.StageWitness), res.Partner.Stage)
}

func TestNonMemberIsRejected(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)

	_, err := h.stages.Advance(h.ctx, sessionId, uuid.New())
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	assert.ErrorIs(t, err, apperror.ErrNotSessionMember)

	_, err = h.stages.GetProgress(h.ctx, uuid.New(), h.a)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAdvanceChecksSessionStatusBeforeRows(t *testing.T) {
	h := newHarness(t)
	session := h.invite(t)

	// b joined the relationship but has no stage rows yet.
	uow := h.uowFactory.NewUnitOfWork(h.ctx)
	require.NoError(t, uow.SessionRepository().AddMember(h.ctx, &entity.RelationshipMember{
		RelationshipId: h.session(t, session.Id).RelationshipId,
		UserId:         h.b,
		Slot:           entity.SlotB,
	}))
	require.Empty(t, h.rows(t, session.Id, h.b))

	res, err := h.stages.Advance(h.ctx, session.Id, h.b)
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusBlocked, res.Status)
	assert.Equal(t, constant.BlockedSessionNotActive, res.Reason)
	assert.Empty(t, res.UnsatisfiedGates)
	assert.Equal(t, int(gate.StageCompact), res.Stage)
}
