package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type IdentifiedNeed struct {
	Id          uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VesselId    uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Category    string                      `gorm:"type:varchar(30);not null"`
	Need        string                      `gorm:"type:text;not null"`
	Evidence    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Confidence  float64                     `gorm:"not null;default:0"`
	AiSuggested bool                        `gorm:"not null;default:false"`
	Confirmed   bool                        `gorm:"not null;default:false"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime"`
}

func (IdentifiedNeed) TableName() string {
	return "identified_needs"
}
