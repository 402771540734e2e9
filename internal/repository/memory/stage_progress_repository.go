package memory

import (
	"context"
	"sort"

	"reconcile-be/internal/entity"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
)

type stageProgressRepository struct {
	s  *Store
	tx *unitOfWork
}

func (r *stageProgressRepository) Create(_ context.Context, progress *entity.StageProgress) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.t.progress {
		if p.SessionId == progress.SessionId && p.UserId == progress.UserId && p.Stage == progress.Stage {
			return ErrDuplicateKey
		}
	}
	r.s.stamp(&progress.Id, &progress.CreatedAt)
	if progress.Gates == nil {
		progress.Gates = gate.Map{}
	}
	r.s.t.progress = append(r.s.t.progress, cloneProgress(*progress))
	r.tx.wrote(tableProgress, progress.Id)
	return nil
}

func (r *stageProgressRepository) Update(_ context.Context, progress *entity.StageProgress) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.t.progress {
		if r.s.t.progress[i].Id == progress.Id {
			r.s.t.progress[i] = cloneProgress(*progress)
			r.tx.wrote(tableProgress, progress.Id)
			return nil
		}
	}
	return nil
}

func (r *stageProgressRepository) FindCurrent(_ context.Context, sessionId, userId uuid.UUID) (*entity.StageProgress, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var current *entity.StageProgress
	for _, p := range r.s.t.progress {
		if p.SessionId != sessionId || p.UserId != userId {
			continue
		}
		if current == nil || p.Stage > current.Stage {
			c := cloneProgress(p)
			current = &c
		}
	}
	return current, nil
}

// FindCurrentForUpdate relies on the store's serialized transactions for exclusion.
func (r *stageProgressRepository) FindCurrentForUpdate(ctx context.Context, sessionId, userId uuid.UUID) (*entity.StageProgress, error) {
	return r.FindCurrent(ctx, sessionId, userId)
}

func (r *stageProgressRepository) FindByStage(_ context.Context, sessionId, userId uuid.UUID, stage gate.Stage) (*entity.StageProgress, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.t.progress {
		if p.SessionId == sessionId && p.UserId == userId && p.Stage == stage {
			c := cloneProgress(p)
			return &c, nil
		}
	}
	return nil, nil
}

func (r *stageProgressRepository) FindAllBySession(_ context.Context, sessionId uuid.UUID) ([]*entity.StageProgress, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.StageProgress
	for _, p := range r.s.t.progress {
		if p.SessionId == sessionId {
			c := cloneProgress(p)
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UserId != out[j].UserId {
			return out[i].UserId.String() < out[j].UserId.String()
		}
		return out[i].Stage < out[j].Stage
	})
	return out, nil
}
