package contract

import (
	"context"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	// FindHistory returns a participant's private messages oldest first.
	FindHistory(ctx context.Context, sessionId, userId uuid.UUID) ([]*entity.Message, error)
}
