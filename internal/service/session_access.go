package service

import (
	"context"

	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/pkg/gate"
	"reconcile-be/pkg/llm"

	"github.com/google/uuid"
)

// loadMemberSession returns the session with its members, rejecting callers
// who are not one of the two participants.
func loadMemberSession(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, userId uuid.UUID) (*entity.Session, error) {
	session, err := uow.SessionRepository().FindById(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session", sessionId)
	}
	if !session.IsMember(userId) {
		return nil, apperror.Forbidden("forbidden", apperror.ErrNotSessionMember)
	}
	return session, nil
}

func okResult(p *entity.StageProgress) *dto.StageActionResult {
	res := &dto.StageActionResult{Status: constant.ResultStatusOK}
	fillStage(res, p)
	return res
}

func blockedResult(reason string, p *entity.StageProgress) *dto.StageActionResult {
	res := &dto.StageActionResult{Status: constant.ResultStatusBlocked, Reason: reason}
	fillStage(res, p)
	return res
}

func fillStage(res *dto.StageActionResult, p *entity.StageProgress) {
	if p == nil {
		res.Stage = int(gate.StageCompact)
		res.StageStatus = string(entity.StageStatusNotStarted)
		return
	}
	res.Stage = int(p.Stage)
	res.StageStatus = string(p.Status)
}

func boolPtr(b bool) *bool {
	return &b
}

func toParticipantProgress(member *entity.RelationshipMember, p *entity.StageProgress) dto.ParticipantProgress {
	out := dto.ParticipantProgress{
		UserId:    member.UserId,
		Slot:      string(member.Slot),
		Stage:     int(gate.StageCompact),
		StageName: gate.StageCompact.String(),
		Status:    string(entity.StageStatusNotStarted),
		Gates:     gate.Map{},
	}
	if p == nil {
		return out
	}
	out.Stage = int(p.Stage)
	out.StageName = p.Stage.String()
	out.Status = string(p.Status)
	out.Gates = p.Gates
	out.StartedAt = p.StartedAt
	out.CompletedAt = p.CompletedAt
	return out
}

func toLLMHistory(messages []*entity.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == entity.MessageRoleAI {
			role = "assistant"
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}
