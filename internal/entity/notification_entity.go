package entity

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an inbox entry for a participant, persisted from the event stream.
type Notification struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	SessionId *uuid.UUID
	TypeCode  string
	Title     string
	Message   string
	Metadata  map[string]interface{}
	IsRead    bool
	ReadAt    *time.Time
	CreatedAt time.Time
}
