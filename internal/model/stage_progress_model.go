package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type StageProgress struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_stage_progress_participant_stage,priority:1"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_stage_progress_participant_stage,priority:2"`
	Stage       int            `gorm:"not null;uniqueIndex:idx_stage_progress_participant_stage,priority:3"`
	Status      string         `gorm:"type:varchar(20);not null;default:'NOT_STARTED'"`
	GatesMap    datatypes.JSON `gorm:"column:gates_satisfied;type:jsonb;not null;default:'{}'"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (StageProgress) TableName() string {
	return "stage_progress"
}
