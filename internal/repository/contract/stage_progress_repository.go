package contract

import (
	"context"

	"reconcile-be/internal/entity"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
)

type StageProgressRepository interface {
	Create(ctx context.Context, progress *entity.StageProgress) error
	Update(ctx context.Context, progress *entity.StageProgress) error

	// FindCurrent returns the highest-stage row of a participant, nil when none exists.
	FindCurrent(ctx context.Context, sessionId, userId uuid.UUID) (*entity.StageProgress, error)
	// FindCurrentForUpdate is FindCurrent with a row lock held until the transaction ends.
	FindCurrentForUpdate(ctx context.Context, sessionId, userId uuid.UUID) (*entity.StageProgress, error)
	FindByStage(ctx context.Context, sessionId, userId uuid.UUID, stage gate.Stage) (*entity.StageProgress, error)
	FindAllBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.StageProgress, error)
}
