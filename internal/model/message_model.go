package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_owner_created,priority:1"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_owner_created,priority:2"`
	Role      string    `gorm:"type:varchar(10);not null"`
	Stage     int       `gorm:"not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_messages_owner_created,priority:3"`
}

func (Message) TableName() string {
	return "messages"
}
