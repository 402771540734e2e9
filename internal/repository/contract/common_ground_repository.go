package contract

import (
	"context"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type CommonGroundRepository interface {
	CreateBulk(ctx context.Context, items []*entity.CommonGround) error
	Update(ctx context.Context, item *entity.CommonGround) error
	FindBySharedVessel(ctx context.Context, sharedVesselId uuid.UUID) ([]*entity.CommonGround, error)
}
