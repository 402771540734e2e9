package mapper

import (
	"time"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/model"

	"gorm.io/datatypes"
)

type NeedMapper struct{}

func NewNeedMapper() *NeedMapper {
	return &NeedMapper{}
}

func (m *NeedMapper) ToEntity(n *model.IdentifiedNeed) *entity.IdentifiedNeed {
	if n == nil {
		return nil
	}
	var updatedAt *time.Time
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		updatedAt = &t
	}
	evidence := make([]string, len(n.Evidence))
	copy(evidence, n.Evidence)

	return &entity.IdentifiedNeed{
		Id:          n.Id,
		VesselId:    n.VesselId,
		Category:    entity.NeedCategory(n.Category),
		Need:        n.Need,
		Evidence:    evidence,
		Confidence:  n.Confidence,
		AiSuggested: n.AiSuggested,
		Confirmed:   n.Confirmed,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *NeedMapper) ToModel(n *entity.IdentifiedNeed) *model.IdentifiedNeed {
	if n == nil {
		return nil
	}
	var updatedAt time.Time
	if n.UpdatedAt != nil {
		updatedAt = *n.UpdatedAt
	}
	return &model.IdentifiedNeed{
		Id:          n.Id,
		VesselId:    n.VesselId,
		Category:    string(n.Category),
		Need:        n.Need,
		Evidence:    datatypes.JSONSlice[string](n.Evidence),
		Confidence:  n.Confidence,
		AiSuggested: n.AiSuggested,
		Confirmed:   n.Confirmed,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *NeedMapper) ToEntities(needs []*model.IdentifiedNeed) []*entity.IdentifiedNeed {
	entities := make([]*entity.IdentifiedNeed, len(needs))
	for i, n := range needs {
		entities[i] = m.ToEntity(n)
	}
	return entities
}

func (m *NeedMapper) ToModels(needs []*entity.IdentifiedNeed) []*model.IdentifiedNeed {
	models := make([]*model.IdentifiedNeed, len(needs))
	for i, n := range needs {
		models[i] = m.ToModel(n)
	}
	return models
}
