package service

import (
	"context"
	"time"

	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/pkg/events"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
)

type IStageService interface {
	GetProgress(ctx context.Context, sessionId, userId uuid.UUID) (*dto.ProgressResponse, error)
	Advance(ctx context.Context, sessionId, userId uuid.UUID) (*dto.StageActionResult, error)
	RecordGate(ctx context.Context, sessionId, userId uuid.UUID, stage gate.Stage, name gate.Name) (*dto.StageActionResult, error)
}

type stageService struct {
	uowFactory  unitofwork.RepositoryFactory
	gateway     IPartnerGateway
	transitions ITransitionRequester
	logger      logger.ILogger
}

func NewStageService(
	uowFactory unitofwork.RepositoryFactory,
	gateway IPartnerGateway,
	transitions ITransitionRequester,
	log logger.ILogger,
) IStageService {
	return &stageService{
		uowFactory:  uowFactory,
		gateway:     gateway,
		transitions: transitions,
		logger:      log,
	}
}

// directGates are the gates a participant sets with a plain action. Stage 0
// gates come from the invitation flow and stage 3 gates from the needs flow.
var directGates = map[gate.Stage]bool{
	gate.StageWitness:            true,
	gate.StagePerspectiveStretch: true,
	gate.StageAgreement:          true,
}

func (s *stageService) GetProgress(ctx context.Context, sessionId, userId uuid.UUID) (*dto.ProgressResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}

	repo := uow.StageProgressRepository()
	res := &dto.ProgressResponse{
		SessionId:     session.Id,
		SessionStatus: string(session.Status),
	}

	for _, member := range session.Members {
		current, err := repo.FindCurrent(ctx, sessionId, member.UserId)
		if err != nil {
			return nil, err
		}
		progress := toParticipantProgress(member, current)
		if member.UserId == userId {
			res.Me = progress
		} else {
			res.Partner = &progress
		}
	}

	return res, nil
}

// Advance moves the caller from their current stage to the next one. Unmet
// preconditions return a blocked result and leave stored state untouched.
func (s *stageService) Advance(ctx context.Context, sessionId, userId uuid.UUID) (*dto.StageActionResult, error) {
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
	stage := gate.StageCompact
	if current != nil {
		stage = current.Stage
	}
	if !mayAdvanceInStatus(session, userId, stage) {
		return blockedResult(constant.BlockedSessionNotActive, current), nil
	}
	if current == nil {
		return blockedWithGates(nil, gate.StageCompact, gate.Map{}), nil
	}

	if current.Stage >= gate.TerminalStage {
		return blockedResult(constant.BlockedTerminalStage, current), nil
	}

	if !current.IsCompleted() && !gate.AllSatisfied(current.Stage, current.Gates) {
		return blockedWithGates(current, current.Stage, current.Gates), nil
	}

	partnerId, hasPartner := session.Partner(userId)

	if current.Stage == gate.StageNeedsMapping {
		ready := false
		if hasPartner {
			partnerRow, err := repo.FindByStage(ctx, sessionId, partnerId, gate.StageNeedsMapping)
			if err != nil {
				return nil, err
			}
			ready = partnerRow != nil && partnerRow.IsCompleted()
		}
		if !ready {
			res := blockedResult(constant.BlockedPartnerNotReady, current)
			res.PartnerReady = boolPtr(false)
			return res, nil
		}
	}

	now := time.Now()
	from := current.Stage

	if !current.IsCompleted() {
		current.Complete(now)
		if err := repo.Update(ctx, current); err != nil {
			return nil, err
		}
	}

	next, err := repo.FindByStage(ctx, sessionId, userId, from+1)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = entity.NewStageProgress(sessionId, userId, from+1, now)
		if err := repo.Create(ctx, next); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("StageService", "Participant advanced", map[string]interface{}{
		"session_id": sessionId.String(),
		"user_id":    userId.String(),
		"from":       int(from),
		"to":         int(next.Stage),
	})

	if hasPartner {
		s.gateway.Notify(ctx, sessionId, partnerId, events.PartnerAdvanced, map[string]interface{}{
			"stage": int(next.Stage),
		})
	}
	s.transitions.RequestTransition(ctx, sessionId, userId, from, next.Stage, "advance")

	return okResult(next), nil
}

// mayAdvanceInStatus allows ACTIVE sessions, plus the creator leaving stage 0
// while the invitation is still open.
func mayAdvanceInStatus(session *entity.Session, userId uuid.UUID, stage gate.Stage) bool {
	if session.Status == entity.SessionStatusActive {
		return true
	}
	return session.Status == entity.SessionStatusInvited &&
		session.CreatedBy == userId &&
		stage == gate.StageCompact
}

func blockedWithGates(p *entity.StageProgress, stage gate.Stage, gates gate.Map) *dto.StageActionResult {
	res := blockedResult(constant.BlockedGatesUnsatisfied, p)
	res.UnsatisfiedGates = gate.Strings(gate.Unsatisfied(stage, gates))
	return res
}

// RecordGate satisfies one gate of a stage with a plain participant action.
// When the last agreement gate of both participants is met the session is
// resolved and the terminal stage completed for both.
func (s *stageService) RecordGate(ctx context.Context, sessionId, userId uuid.UUID, stage gate.Stage, name gate.Name) (*dto.StageActionResult, error) {
	if !directGates[stage] || !gate.Requires(stage, name) {
		return nil, apperror.Validation("gate "+string(name)+" cannot be set directly at "+stage.String(), nil)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}

	// Stage 4 completion writes both rows; serialize on the shared vessel first.
	if stage == gate.TerminalStage {
		if _, err := uow.VesselRepository().GetOrCreateSharedVessel(ctx, sessionId); err != nil {
			return nil, err
		}
		if _, err := uow.VesselRepository().FindSharedVesselForUpdate(ctx, sessionId); err != nil {
			return nil, err
		}
	}

	repo := uow.StageProgressRepository()
	current, err := repo.FindCurrentForUpdate(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}

	if session.Status != entity.SessionStatusActive {
		return blockedResult(constant.BlockedSessionNotActive, current), nil
	}
	if current == nil || current.Stage != stage || current.IsCompleted() {
		return blockedResult(constant.BlockedWrongStage, current), nil
	}
	if current.Gates.Satisfied(name) {
		return okResult(current), nil
	}

	now := time.Now()
	if current.Gates == nil {
		current.Gates = gate.Map{}
	}
	if err := current.Gates.Mark(name, now); err != nil {
		return nil, apperror.Validation("invalid gate", err)
	}
	current.RefreshStatus(now)
	if err := repo.Update(ctx, current); err != nil {
		return nil, err
	}

	resolved := false
	if stage == gate.TerminalStage && gate.AllSatisfied(stage, current.Gates) {
		resolved, err = s.resolveWhenBothAgreed(ctx, uow, session, now)
		if err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if partnerId, ok := session.Partner(userId); ok {
		s.gateway.Notify(ctx, sessionId, partnerId, events.PartnerGateSatisfied, map[string]interface{}{
			"stage": int(stage),
			"gate":  string(name),
		})
	}

	res := okResult(current)
	if resolved {
		res.StageStatus = string(entity.StageStatusCompleted)
		s.gateway.PublishSessionEvent(ctx, session, events.StageCompleted, map[string]interface{}{"stage": int(stage)})
		s.gateway.PublishSessionEvent(ctx, session, events.SessionResolved, nil)
	}
	return res, nil
}

func (s *stageService) resolveWhenBothAgreed(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.Session, now time.Time) (bool, error) {
	participants := session.ParticipantIds()
	if len(participants) != 2 {
		return false, nil
	}

	repo := uow.StageProgressRepository()
	for _, id := range participants {
		row, err := repo.FindByStage(ctx, session.Id, id, gate.TerminalStage)
		if err != nil {
			return false, err
		}
		if row == nil || !gate.AllSatisfied(gate.TerminalStage, row.Gates) {
			return false, nil
		}
	}

	changed, err := CompleteSharedStage(ctx, uow, session.Id, participants, gate.TerminalStage, now)
	if err != nil || !changed {
		return false, err
	}

	session.Status = entity.SessionStatusResolved
	session.ResolvedAt = &now
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return false, err
	}
	return true, nil
}
