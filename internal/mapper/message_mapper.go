package mapper

import (
	"reconcile-be/internal/entity"
	"reconcile-be/internal/model"
	"reconcile-be/pkg/gate"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		UserId:    msg.UserId,
		Role:      entity.MessageRole(msg.Role),
		Stage:     gate.Stage(msg.Stage),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		UserId:    msg.UserId,
		Role:      string(msg.Role),
		Stage:     int(msg.Stage),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}
