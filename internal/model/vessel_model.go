package model

import (
	"time"

	"github.com/google/uuid"
)

type UserVessel struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_vessel_owner,priority:1"`
	UserId           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_vessel_owner,priority:2"`
	NeedsExtractedAt *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

func (UserVessel) TableName() string {
	return "user_vessels"
}

type SharedVessel struct {
	Id                     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId              uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CommonGroundAnalyzedAt *time.Time
	CreatedAt              time.Time `gorm:"autoCreateTime"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime"`
}

func (SharedVessel) TableName() string {
	return "shared_vessels"
}
