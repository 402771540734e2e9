package model

import (
	"time"

	"github.com/google/uuid"
)

type CommonGround struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SharedVesselId uuid.UUID `gorm:"type:uuid;not null;index"`
	Category       string    `gorm:"type:varchar(30);not null"`
	Need           string    `gorm:"type:text;not null"`
	ConfirmedByA   bool      `gorm:"column:confirmed_by_a;not null;default:false"`
	ConfirmedByB   bool      `gorm:"column:confirmed_by_b;not null;default:false"`
	ConfirmedAt    *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (CommonGround) TableName() string {
	return "common_ground"
}
