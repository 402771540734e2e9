package entity

import (
	"time"

	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleUser MessageRole = "USER"
	MessageRoleAI   MessageRole = "AI"
)

// Message belongs to one participant's private conversation inside a session.
type Message struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	UserId    uuid.UUID
	Role      MessageRole
	Stage     gate.Stage
	Content   string
	CreatedAt time.Time
}
