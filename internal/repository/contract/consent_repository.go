package contract

import (
	"context"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

// ConsentRepository is append-only.
type ConsentRepository interface {
	Create(ctx context.Context, record *entity.ConsentRecord) error
	FindByRequester(ctx context.Context, sessionId, userId uuid.UUID) ([]*entity.ConsentRecord, error)
}
