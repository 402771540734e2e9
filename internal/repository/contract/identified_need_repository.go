package contract

import (
	"context"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type IdentifiedNeedRepository interface {
	Create(ctx context.Context, need *entity.IdentifiedNeed) error
	CreateBulk(ctx context.Context, needs []*entity.IdentifiedNeed) error
	Update(ctx context.Context, need *entity.IdentifiedNeed) error
	FindByVessel(ctx context.Context, vesselId uuid.UUID) ([]*entity.IdentifiedNeed, error)
}
