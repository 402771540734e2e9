package service

import (
	"context"
	"strings"
	"time"

	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
)

// IMessageService keeps each participant's private conversation history. The
// history is what need extraction reads.
type IMessageService interface {
	RecordMessage(ctx context.Context, sessionId, userId uuid.UUID, req *dto.RecordMessageRequest) (*dto.MessageResponse, error)
	ListMessages(ctx context.Context, sessionId, userId uuid.UUID) ([]dto.MessageResponse, error)
}

type messageService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewMessageService(uowFactory unitofwork.RepositoryFactory) IMessageService {
	return &messageService{uowFactory: uowFactory}
}

func (s *messageService) RecordMessage(ctx context.Context, sessionId, userId uuid.UUID, req *dto.RecordMessageRequest) (*dto.MessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.Validation("content is required", nil)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := loadMemberSession(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}
	if session.Status == entity.SessionStatusResolved {
		return nil, apperror.Conflict("session is resolved")
	}

	stage := gate.StageCompact
	current, err := uow.StageProgressRepository().FindCurrent(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	if current != nil {
		stage = current.Stage
	}

	msg := &entity.Message{
		Id:        uuid.New(),
		SessionId: sessionId,
		UserId:    userId,
		Role:      entity.MessageRoleUser,
		Stage:     stage,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return nil, err
	}

	res := toMessageResponse(msg)
	return &res, nil
}

func (s *messageService) ListMessages(ctx context.Context, sessionId, userId uuid.UUID) ([]dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := loadMemberSession(ctx, uow, sessionId, userId); err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindHistory(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}

	res := make([]dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, toMessageResponse(m))
	}
	return res, nil
}

func toMessageResponse(m *entity.Message) dto.MessageResponse {
	return dto.MessageResponse{
		Id:        m.Id,
		Role:      string(m.Role),
		Stage:     int(m.Stage),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
