package service

import (
	"context"
	"fmt"
	"time"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
)

// CompleteSharedStage completes a stage for both participants of a session
// inside the caller's transaction and opens the next stage for each of them.
// The caller must hold the shared vessel lock.
//
// It is idempotent: rows already completed and next-stage rows already present
// are left alone. The returned flag is true only when something changed, so
// callers fire their side effects exactly once.
func CompleteSharedStage(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID, participants []uuid.UUID, stage gate.Stage, now time.Time) (bool, error) {
	if len(participants) != 2 {
		return false, apperror.Conflict("a shared stage needs both participants")
	}

	repo := uow.StageProgressRepository()
	changed := false

	for _, userId := range participants {
		row, err := repo.FindByStage(ctx, sessionId, userId, stage)
		if err != nil {
			return false, err
		}
		if row == nil {
			return false, apperror.Conflict(fmt.Sprintf("participant %s has not reached %s", userId, stage))
		}

		if !row.IsCompleted() {
			row.Complete(now)
			if err := repo.Update(ctx, row); err != nil {
				return false, err
			}
			changed = true
		}

		if stage == gate.TerminalStage {
			continue
		}

		next, err := repo.FindByStage(ctx, sessionId, userId, stage+1)
		if err != nil {
			return false, err
		}
		if next == nil {
			if err := repo.Create(ctx, entity.NewStageProgress(sessionId, userId, stage+1, now)); err != nil {
				return false, err
			}
			changed = true
		}
	}

	return changed, nil
}
