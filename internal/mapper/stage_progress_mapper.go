package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/model"
	"reconcile-be/pkg/gate"

	"gorm.io/datatypes"
)

type StageProgressMapper struct{}

func NewStageProgressMapper() *StageProgressMapper {
	return &StageProgressMapper{}
}

// ToEntity decodes the stored gate map; a row whose gates fail to decode is an error
// rather than an empty map, so a corrupted row never reads as "nothing satisfied".
func (m *StageProgressMapper) ToEntity(p *model.StageProgress) (*entity.StageProgress, error) {
	if p == nil {
		return nil, nil
	}

	gates := gate.Map{}
	if len(p.GatesMap) > 0 {
		if err := json.Unmarshal(p.GatesMap, &gates); err != nil {
			return nil, fmt.Errorf("decode gates of stage progress %s: %w", p.Id, err)
		}
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.StageProgress{
		Id:          p.Id,
		SessionId:   p.SessionId,
		UserId:      p.UserId,
		Stage:       gate.Stage(p.Stage),
		Status:      entity.StageStatus(p.Status),
		Gates:       gates,
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func (m *StageProgressMapper) ToModel(p *entity.StageProgress) (*model.StageProgress, error) {
	if p == nil {
		return nil, nil
	}

	gates := p.Gates
	if gates == nil {
		gates = gate.Map{}
	}
	raw, err := json.Marshal(gates)
	if err != nil {
		return nil, fmt.Errorf("encode gates of stage progress %s: %w", p.Id, err)
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.StageProgress{
		Id:          p.Id,
		SessionId:   p.SessionId,
		UserId:      p.UserId,
		Stage:       int(p.Stage),
		Status:      string(p.Status),
		GatesMap:    datatypes.JSON(raw),
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func (m *StageProgressMapper) ToEntities(rows []*model.StageProgress) ([]*entity.StageProgress, error) {
	entities := make([]*entity.StageProgress, len(rows))
	for i, r := range rows {
		e, err := m.ToEntity(r)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}
