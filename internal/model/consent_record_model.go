package model

import (
	"time"

	"github.com/google/uuid"
)

// ConsentRecord rows are only ever inserted.
type ConsentRecord struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID `gorm:"type:uuid;not null;index:idx_consent_session_requester,priority:1"`
	RequestedBy uuid.UUID `gorm:"type:uuid;not null;index:idx_consent_session_requester,priority:2"`
	TargetType  string    `gorm:"type:varchar(30);not null"`
	TargetId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Decision    string    `gorm:"type:varchar(10);not null"`
	DecidedAt   time.Time `gorm:"not null"`
}

func (ConsentRecord) TableName() string {
	return "consent_records"
}
