package memory

import (
	"context"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type needRepository struct {
	s  *Store
	tx *unitOfWork
}

func (r *needRepository) Create(_ context.Context, need *entity.IdentifiedNeed) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&need.Id, &need.CreatedAt)
	r.s.t.needs = append(r.s.t.needs, cloneNeed(*need))
	r.tx.wrote(tableNeeds, need.Id)
	return nil
}

func (r *needRepository) CreateBulk(ctx context.Context, needs []*entity.IdentifiedNeed) error {
	for _, n := range needs {
		if err := r.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *needRepository) Update(_ context.Context, need *entity.IdentifiedNeed) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.t.needs {
		if r.s.t.needs[i].Id == need.Id {
			r.s.t.needs[i] = cloneNeed(*need)
			r.tx.wrote(tableNeeds, need.Id)
			return nil
		}
	}
	return nil
}

func (r *needRepository) FindByVessel(_ context.Context, vesselId uuid.UUID) ([]*entity.IdentifiedNeed, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.IdentifiedNeed
	for _, n := range r.s.t.needs {
		if n.VesselId == vesselId {
			c := cloneNeed(n)
			out = append(out, &c)
		}
	}
	return out, nil
}
