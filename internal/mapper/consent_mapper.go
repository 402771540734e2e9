package mapper

import (
	"reconcile-be/internal/entity"
	"reconcile-be/internal/model"
)

type ConsentMapper struct{}

func NewConsentMapper() *ConsentMapper {
	return &ConsentMapper{}
}

func (m *ConsentMapper) ToEntity(c *model.ConsentRecord) *entity.ConsentRecord {
	if c == nil {
		return nil
	}
	return &entity.ConsentRecord{
		Id:          c.Id,
		SessionId:   c.SessionId,
		RequestedBy: c.RequestedBy,
		TargetType:  c.TargetType,
		TargetId:    c.TargetId,
		Decision:    entity.ConsentDecision(c.Decision),
		DecidedAt:   c.DecidedAt,
	}
}

func (m *ConsentMapper) ToModel(c *entity.ConsentRecord) *model.ConsentRecord {
	if c == nil {
		return nil
	}
	return &model.ConsentRecord{
		Id:          c.Id,
		SessionId:   c.SessionId,
		RequestedBy: c.RequestedBy,
		TargetType:  c.TargetType,
		TargetId:    c.TargetId,
		Decision:    string(c.Decision),
		DecidedAt:   c.DecidedAt,
	}
}
