package contract

import (
	"context"
	"time"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type VesselRepository interface {
	GetOrCreateUserVessel(ctx context.Context, sessionId, userId uuid.UUID) (*entity.UserVessel, error)
	FindUserVessel(ctx context.Context, sessionId, userId uuid.UUID) (*entity.UserVessel, error)
	// MarkNeedsExtracted stamps the vessel once. It reports false when another
	// extraction already stamped it.
	MarkNeedsExtracted(ctx context.Context, vesselId uuid.UUID, at time.Time) (bool, error)

	GetOrCreateSharedVessel(ctx context.Context, sessionId uuid.UUID) (*entity.SharedVessel, error)
	// FindSharedVesselForUpdate locks the shared vessel row. Every bilateral
	// read-decide-write on common ground takes this lock first.
	FindSharedVesselForUpdate(ctx context.Context, sessionId uuid.UUID) (*entity.SharedVessel, error)
	UpdateSharedVessel(ctx context.Context, vessel *entity.SharedVessel) error
}
