package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/internal/pkg/idgen"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/internal/pkg/mailer"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/pkg/events"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
)

type ISessionService interface {
	CreateSession(ctx context.Context, creatorId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, sessionId, userId uuid.UUID) (*dto.SessionResponse, error)
	SignCompact(ctx context.Context, sessionId, userId uuid.UUID) (*dto.StageActionResult, error)
	ConfirmInvitation(ctx context.Context, sessionId, userId uuid.UUID) (*dto.StageActionResult, error)
	AcceptInvitation(ctx context.Context, code string, userId uuid.UUID) (*dto.SessionResponse, error)
	Pause(ctx context.Context, sessionId, userId uuid.UUID) (*dto.SessionResponse, error)
	Resume(ctx context.Context, sessionId, userId uuid.UUID) (*dto.SessionResponse, error)
	Resolve(ctx context.Context, sessionId, userId uuid.UUID) (*dto.SessionResponse, error)
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	mailer     mailer.IEmailService
	gateway    IPartnerGateway
	logger     logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	gateway IPartnerGateway,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		mailer:     emailService,
		gateway:    gateway,
		logger:     log,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, creatorId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	code, err := idgen.InvitationCode()
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := time.Now()
	relationship := &entity.Relationship{Id: uuid.New(), CreatedAt: now}
	if err := uow.SessionRepository().CreateRelationship(ctx, relationship); err != nil {
		return nil, err
	}

	member := &entity.RelationshipMember{
		Id:             uuid.New(),
		RelationshipId: relationship.Id,
		UserId:         creatorId,
		Slot:           entity.SlotA,
		JoinedAt:       now,
	}
	if err := uow.SessionRepository().AddMember(ctx, member); err != nil {
		return nil, err
	}

	session := &entity.Session{
		Id:             uuid.New(),
		RelationshipId: relationship.Id,
		CreatedBy:      creatorId,
		Status:         entity.SessionStatusCreated,
		InvitationCode: code,
		InviteeEmail:   strings.ToLower(strings.TrimSpace(req.InviteeEmail)),
		InviteeName:    strings.TrimSpace(req.InviteeName),
		InviterName:    strings.TrimSpace(req.InviterName),
		CreatedAt:      now,
	}
	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	if err := uow.StageProgressRepository().Create(ctx, entity.NewStageProgress(session.Id, creatorId, gate.StageCompact, now)); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	session.Members = []*entity.RelationshipMember{member}
	return toSessionResponse(session), nil
}

func (s *sessionService) GetSession(ctx context.Context, sessionId, userId uuid.UUID) (*dto.SessionResponse, error) {
	session, err := loadMemberSession(ctx, s.uowFactory.NewUnitOfWork(ctx), sessionId, userId)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// SignCompact sets the caller's stage 0 compactSigned gate. The invitee
// signing while the invitation is open activates the session.
func (s *sessionService) SignCompact(ctx context.Context, sessionId, userId uuid.UUID) (*dto.StageActionResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}

	repo := uow.StageProgressRepository()
	current, err := repo.FindCurrentForUpdate(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}

	if session.Status == entity.SessionStatusResolved || session.Status == entity.SessionStatusPaused {
		return blockedResult(constant.BlockedSessionNotActive, current), nil
	}
	if current == nil || current.Stage != gate.StageCompact || current.IsCompleted() {
		return blockedResult(constant.BlockedWrongStage, current), nil
	}

	now := time.Now()
	if !current.Gates.Satisfied(gate.CompactSigned) {
		if current.Gates == nil {
			current.Gates = gate.Map{}
		}
		if err := current.Gates.Set(gate.CompactSigned, gate.Bool(true)); err != nil {
			return nil, err
		}
		current.RefreshStatus(now)
		if err := repo.Update(ctx, current); err != nil {
			return nil, err
		}
	}

	activated := false
	if userId != session.CreatedBy && session.Status == entity.SessionStatusInvited {
		session.Status = entity.SessionStatusActive
		if err := uow.SessionRepository().Update(ctx, session); err != nil {
			return nil, err
		}
		activated = true
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if activated {
		s.logger.Info("SessionService", "Session activated", map[string]interface{}{"session_id": sessionId.String()})
		s.gateway.Notify(ctx, sessionId, session.CreatedBy, events.SessionActivated, nil)
	}

	return okResult(current), nil
}

// ConfirmInvitation is the creator sending the invitation. It records the
// creator's compact signature and the send time as stage 0 gates.
func (s *sessionService) ConfirmInvitation(ctx context.Context, sessionId, userId uuid.UUID) (*dto.StageActionResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}
	if session.CreatedBy != userId {
		return nil, apperror.Forbidden("only the session creator can send the invitation", nil)
	}

	repo := uow.StageProgressRepository()
	row, err := repo.FindByStage(ctx, sessionId, userId, gate.StageCompact)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperror.Conflict("creator has no compact stage")
	}

	switch session.Status {
	case entity.SessionStatusCreated:
	case entity.SessionStatusInvited, entity.SessionStatusActive:
		return okResult(row), nil
	default:
		return blockedResult(constant.BlockedSessionNotActive, row), nil
	}

	now := time.Now()
	if row.Gates == nil {
		row.Gates = gate.Map{}
	}
	if !row.Gates.Satisfied(gate.CompactSigned) {
		if err := row.Gates.Set(gate.CompactSigned, gate.Bool(true)); err != nil {
			return nil, err
		}
	}
	if !row.Gates.Satisfied(gate.InvitationSent) {
		if err := row.Gates.Set(gate.InvitationSent, gate.Timestamp(now)); err != nil {
			return nil, err
		}
	}
	row.RefreshStatus(now)
	if err := repo.Update(ctx, row); err != nil {
		return nil, err
	}

	session.Status = entity.SessionStatusInvited
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.sendInvitation(session)
	return okResult(row), nil
}

// sendInvitation mails the invitee in the background; failure only logs.
func (s *sessionService) sendInvitation(session *entity.Session) {
	if s.mailer == nil || session.InviteeEmail == "" {
		return
	}

	inviter := session.InviterName
	if inviter == "" {
		inviter = "Your partner"
	}

	go func() {
		if err := s.mailer.SendInvitation(session.InviteeEmail, session.InviteeName, inviter, session.InvitationCode); err != nil {
			s.logger.Warn("SessionService", "Failed to send invitation email", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
		}
	}()
}

// AcceptInvitation joins the caller to the session as the second participant.
func (s *sessionService) AcceptInvitation(ctx context.Context, code string, userId uuid.UUID) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	code = strings.ToUpper(strings.TrimSpace(code))
	session, err := uow.SessionRepository().FindByInvitationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("invitation", code)
	}

	if session.IsMember(userId) {
		if session.CreatedBy == userId {
			return nil, apperror.Validation("you cannot accept your own invitation", nil)
		}
		return toSessionResponse(session), nil
	}
	if session.Status != entity.SessionStatusInvited {
		return nil, apperror.Conflict(fmt.Sprintf("invitation is not open (session is %s)", session.Status))
	}
	if len(session.Members) >= 2 {
		return nil, apperror.Conflict("session already has two participants")
	}

	now := time.Now()
	member := &entity.RelationshipMember{
		Id:             uuid.New(),
		RelationshipId: session.RelationshipId,
		UserId:         userId,
		Slot:           entity.SlotB,
		JoinedAt:       now,
	}
	if err := uow.SessionRepository().AddMember(ctx, member); err != nil {
		return nil, err
	}
	if err := uow.StageProgressRepository().Create(ctx, entity.NewStageProgress(session.Id, userId, gate.StageCompact, now)); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	session.Members = append(session.Members, member)
	s.gateway.Notify(ctx, session.Id, session.CreatedBy, events.PartnerJoined, nil)

	return toSessionResponse(session), nil
}

func (s *sessionService) Pause(ctx context.Context, sessionId, userId uuid.UUID) (*dto.SessionResponse, error) {
	return s.changeStatus(ctx, sessionId, userId, entity.SessionStatusPaused, events.SessionPaused,
		entity.SessionStatusActive)
}

func (s *sessionService) Resume(ctx context.Context, sessionId, userId uuid.UUID) (*dto.SessionResponse, error) {
	return s.changeStatus(ctx, sessionId, userId, entity.SessionStatusActive, events.SessionResumed,
		entity.SessionStatusPaused)
}

// Resolve is terminal and may be called from any open status.
func (s *sessionService) Resolve(ctx context.Context, sessionId, userId uuid.UUID) (*dto.SessionResponse, error) {
	return s.changeStatus(ctx, sessionId, userId, entity.SessionStatusResolved, events.SessionResolved,
		entity.SessionStatusCreated, entity.SessionStatusInvited, entity.SessionStatusActive, entity.SessionStatusPaused)
}

// changeStatus moves the session to target when it is in one of from. Asking
// for the status the session already has is a no-op.
func (s *sessionService) changeStatus(ctx context.Context, sessionId, userId uuid.UUID, target entity.SessionStatus, eventName string, from ...entity.SessionStatus) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}
	if session.Status == target {
		return toSessionResponse(session), nil
	}

	allowed := false
	for _, st := range from {
		if session.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperror.Conflict(fmt.Sprintf("session cannot move from %s to %s", session.Status, target))
	}

	session.Status = target
	if target == entity.SessionStatusResolved {
		now := time.Now()
		session.ResolvedAt = &now
	}
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if partnerId, ok := session.Partner(userId); ok {
		s.gateway.Notify(ctx, sessionId, partnerId, eventName, map[string]interface{}{
			events.KeyActorID: userId.String(),
		})
	}

	return toSessionResponse(session), nil
}

func toSessionResponse(session *entity.Session) *dto.SessionResponse {
	res := &dto.SessionResponse{
		Id:             session.Id,
		RelationshipId: session.RelationshipId,
		Status:         string(session.Status),
		CreatedBy:      session.CreatedBy,
		InvitationCode: session.InvitationCode,
		InviteeEmail:   session.InviteeEmail,
		InviteeName:    session.InviteeName,
		Members:        make([]dto.SessionMemberResponse, 0, len(session.Members)),
		CreatedAt:      session.CreatedAt,
		ResolvedAt:     session.ResolvedAt,
	}
	for _, m := range session.Members {
		res.Members = append(res.Members, dto.SessionMemberResponse{
			UserId:   m.UserId,
			Slot:     string(m.Slot),
			JoinedAt: m.JoinedAt,
		})
	}
	return res
}
