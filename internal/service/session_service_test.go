package service

import (
	"strings"
	"testing"
	"time"

	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/pkg/events"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentInvitation struct {
	To, Invitee, Inviter, Code string
}

type fakeMailer struct {
	sent chan sentInvitation
}

func (m *fakeMailer) SendInvitation(toEmail, inviteeName, inviterName, code string) error {
	m.sent <- sentInvitation{To: toEmail, Invitee: inviteeName, Inviter: inviterName, Code: code}
	return nil
}

func TestCreateSessionStartsCreatorAtCompact(t *testing.T) {
	h := newHarness(t)

	session, err := h.sessions.CreateSession(h.ctx, h.a, &dto.CreateSessionRequest{InviteeEmail: " Partner@Example.com "})
	require.NoError(t, err)

	assert.Equal(t, string(entity.SessionStatusCreated), session.Status)
	assert.Equal(t, "partner@example.com", session.InviteeEmail)
	assert.Len(t, session.InvitationCode, 10)
	require.Len(t, session.Members, 1)
	assert.Equal(t, string(entity.SlotA), session.Members[0].Slot)

	rows := h.rows(t, session.Id, h.a)
	require.Len(t, rows, 1)
	assert.Equal(t, gate.StageCompact, rows[0].Stage)
	assert.Equal(t, entity.StageStatusInProgress, rows[0].Status)
}

func TestConfirmInvitationSendsMailOnce(t *testing.T) {
	h := newHarness(t)
	mailer := &fakeMailer{sent: make(chan sentInvitation, 2)}
	h.sessions = NewSessionService(h.uowFactory, mailer, h.gateway, logger.NewNopLogger())

	session, err := h.sessions.CreateSession(h.ctx, h.a, &dto.CreateSessionRequest{
		InviteeEmail: "sam@example.com",
		InviteeName:  "Sam",
	})
	require.NoError(t, err)

	res, err := h.sessions.ConfirmInvitation(h.ctx, session.Id, h.a)
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusOK, res.Status)

	select {
	case got := <-mailer.sent:
		assert.Equal(t, "sam@example.com", got.To)
		assert.Equal(t, "Your partner", got.Inviter)
		assert.Equal(t, session.InvitationCode, got.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("invitation e-mail was not sent")
	}

	again, err := h.sessions.ConfirmInvitation(h.ctx, session.Id, h.a)
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusOK, again.Status)
	assert.Empty(t, mailer.sent)

	row := h.row(t, session.Id, h.a, gate.StageCompact)
	assert.True(t, row.Gates.Satisfied(gate.CompactSigned))
	assert.True(t, row.Gates.Satisfied(gate.InvitationSent))
	assert.Equal(t, entity.StageStatusGatePending, row.Status)
	assert.Equal(t, entity.SessionStatusInvited, h.session(t, session.Id).Status)
}

func TestOnlyCreatorConfirmsInvitation(t *testing.T) {
	h := newHarness(t)
	session := h.invite(t)
	_, err := h.sessions.AcceptInvitation(h.ctx, session.InvitationCode, h.b)
	require.NoError(t, err)

	_, err = h.sessions.ConfirmInvitation(h.ctx, session.Id, h.b)
	require.Error(t, err)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestAcceptInvitation(t *testing.T) {
	h := newHarness(t)
	session := h.invite(t)

	joined, err := h.sessions.AcceptInvitation(h.ctx, strings.ToLower(session.InvitationCode), h.b)
	require.NoError(t, err)
	require.Len(t, joined.Members, 2)
	assert.Equal(t, string(entity.SlotB), joined.Members[1].Slot)
	assert.Equal(t, string(entity.SessionStatusInvited), joined.Status)
	assert.Equal(t, 1, h.gateway.count(h.a, events.PartnerJoined))

	again, err := h.sessions.AcceptInvitation(h.ctx, session.InvitationCode, h.b)
	require.NoError(t, err)
	assert.Len(t, again.Members, 2)
	assert.Equal(t, 1, h.gateway.count(h.a, events.PartnerJoined))
	assert.Len(t, h.rows(t, session.Id, h.b), 1)
}

func TestAcceptInvitationRejections(t *testing.T) {
	h := newHarness(t)

	_, err := h.sessions.AcceptInvitation(h.ctx, "NOPE", h.b)
	assert.True(t, apperror.IsNotFound(err))

	created, err := h.sessions.CreateSession(h.ctx, h.a, &dto.CreateSessionRequest{InviteeEmail: "sam@example.com"})
	require.NoError(t, err)

	// The invitation has not been sent yet.
	_, err = h.sessions.AcceptInvitation(h.ctx, created.InvitationCode, h.b)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = h.sessions.ConfirmInvitation(h.ctx, created.Id, h.a)
	require.NoError(t, err)

	_, err = h.sessions.AcceptInvitation(h.ctx, created.InvitationCode, h.a)
	assert.True(t, apperror.IsValidation(err))

	_, err = h.sessions.AcceptInvitation(h.ctx, created.InvitationCode, h.b)
	require.NoError(t, err)

	_, err = h.sessions.AcceptInvitation(h.ctx, created.InvitationCode, uuid.New())
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestInviteeSigningActivatesSession(t *testing.T) {
	h := newHarness(t)
	session := h.invite(t)
	_, err := h.sessions.AcceptInvitation(h.ctx, session.InvitationCode, h.b)
	require.NoError(t, err)

	res, err := h.sessions.SignCompact(h.ctx, session.Id, h.b)
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusOK, res.Status)

	assert.Equal(t, entity.SessionStatusActive, h.session(t, session.Id).Status)
	assert.Equal(t, 1, h.gateway.count(h.a, events.SessionActivated))

	again, err := h.sessions.SignCompact(h.ctx, session.Id, h.b)
	require.NoError(t, err)
	assert.Equal(t, constant.ResultStatusOK, again.Status)
	assert.Equal(t, 1, h.gateway.count(h.a, events.SessionActivated))
}

func TestPauseResumeResolve(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)

	paused, err := h.sessions.Pause(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusPaused), paused.Status)
	assert.Equal(t, 1, h.gateway.count(h.b, events.SessionPaused))

	blocked, err := h.stages.Advance(h.ctx, sessionId, h.b)
	require.NoError(t, err)
	assert.Equal(t, constant.BlockedSessionNotActive, blocked.Reason)

	_, err = h.sessions.Pause(h.ctx, sessionId, h.b)
	require.NoError(t, err)
	assert.Equal(t, 1, h.gateway.count(h.a, events.SessionPaused))

	resumed, err := h.sessions.Resume(h.ctx, sessionId, h.b)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusActive), resumed.Status)

	resolved, err := h.sessions.Resolve(h.ctx, sessionId, h.a)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusResolved), resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = h.sessions.Resume(h.ctx, sessionId, h.a)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = h.messages.RecordMessage(h.ctx, sessionId, h.a, &dto.RecordMessageRequest{Content: "one more thing"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestGetSessionRequiresMembership(t *testing.T) {
	h := newHarness(t)
	sessionId := h.startSession(t)

	got, err := h.sessions.GetSession(h.ctx, sessionId, h.b)
	require.NoError(t, err)
	assert.Equal(t, sessionId, got.Id)

	_, err = h.sessions.GetSession(h.ctx, sessionId, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotSessionMember)
}
