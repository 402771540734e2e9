package mapper

import (
	"reconcile-be/internal/entity"
	"reconcile-be/internal/model"
)

type CommonGroundMapper struct{}

func NewCommonGroundMapper() *CommonGroundMapper {
	return &CommonGroundMapper{}
}

func (m *CommonGroundMapper) ToEntity(c *model.CommonGround) *entity.CommonGround {
	if c == nil {
		return nil
	}
	return &entity.CommonGround{
		Id:             c.Id,
		SharedVesselId: c.SharedVesselId,
		Category:       entity.NeedCategory(c.Category),
		Need:           c.Need,
		ConfirmedByA:   c.ConfirmedByA,
		ConfirmedByB:   c.ConfirmedByB,
		ConfirmedAt:    c.ConfirmedAt,
		CreatedAt:      c.CreatedAt,
	}
}

func (m *CommonGroundMapper) ToModel(c *entity.CommonGround) *model.CommonGround {
	if c == nil {
		return nil
	}
	return &model.CommonGround{
		Id:             c.Id,
		SharedVesselId: c.SharedVesselId,
		Category:       string(c.Category),
		Need:           c.Need,
		ConfirmedByA:   c.ConfirmedByA,
		ConfirmedByB:   c.ConfirmedByB,
		ConfirmedAt:    c.ConfirmedAt,
		CreatedAt:      c.CreatedAt,
	}
}

func (m *CommonGroundMapper) ToEntities(rows []*model.CommonGround) []*entity.CommonGround {
	entities := make([]*entity.CommonGround, len(rows))
	for i, c := range rows {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *CommonGroundMapper) ToModels(rows []*entity.CommonGround) []*model.CommonGround {
	models := make([]*model.CommonGround, len(rows))
	for i, c := range rows {
		models[i] = m.ToModel(c)
	}
	return models
}
