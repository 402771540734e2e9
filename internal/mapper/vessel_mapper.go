package mapper

import (
	"time"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/model"
)

type VesselMapper struct{}

func NewVesselMapper() *VesselMapper {
	return &VesselMapper{}
}

func (m *VesselMapper) UserVesselToEntity(v *model.UserVessel) *entity.UserVessel {
	if v == nil {
		return nil
	}
	return &entity.UserVessel{
		Id:               v.Id,
		SessionId:        v.SessionId,
		UserId:           v.UserId,
		NeedsExtractedAt: v.NeedsExtractedAt,
		CreatedAt:        v.CreatedAt,
	}
}

func (m *VesselMapper) SharedVesselToEntity(v *model.SharedVessel) *entity.SharedVessel {
	if v == nil {
		return nil
	}
	var updatedAt *time.Time
	if !v.UpdatedAt.IsZero() {
		t := v.UpdatedAt
		updatedAt = &t
	}
	return &entity.SharedVessel{
		Id:                     v.Id,
		SessionId:              v.SessionId,
		CommonGroundAnalyzedAt: v.CommonGroundAnalyzedAt,
		CreatedAt:              v.CreatedAt,
		UpdatedAt:              updatedAt,
	}
}

func (m *VesselMapper) SharedVesselToModel(v *entity.SharedVessel) *model.SharedVessel {
	if v == nil {
		return nil
	}
	var updatedAt time.Time
	if v.UpdatedAt != nil {
		updatedAt = *v.UpdatedAt
	}
	return &model.SharedVessel{
		Id:                     v.Id,
		SessionId:              v.SessionId,
		CommonGroundAnalyzedAt: v.CommonGroundAnalyzedAt,
		CreatedAt:              v.CreatedAt,
		UpdatedAt:              updatedAt,
	}
}
