package memory

import (
	"context"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type commonGroundRepository struct {
	s  *Store
	tx *unitOfWork
}

func (r *commonGroundRepository) CreateBulk(_ context.Context, items []*entity.CommonGround) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, item := range items {
		r.s.stamp(&item.Id, &item.CreatedAt)
		r.s.t.commonGround = append(r.s.t.commonGround, cloneCommonGround(*item))
		r.tx.wrote(tableCommonGround, item.Id)
	}
	return nil
}

func (r *commonGroundRepository) Update(_ context.Context, item *entity.CommonGround) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.t.commonGround {
		if r.s.t.commonGround[i].Id == item.Id {
			r.s.t.commonGround[i] = cloneCommonGround(*item)
			r.tx.wrote(tableCommonGround, item.Id)
			return nil
		}
	}
	return nil
}

func (r *commonGroundRepository) FindBySharedVessel(_ context.Context, sharedVesselId uuid.UUID) ([]*entity.CommonGround, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.CommonGround
	for _, c := range r.s.t.commonGround {
		if c.SharedVesselId == sharedVesselId {
			cg := cloneCommonGround(c)
			out = append(out, &cg)
		}
	}
	return out, nil
}
