package memory

import (
	"context"
	"time"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type vesselRepository struct {
	s  *Store
	tx *unitOfWork
}

func (r *vesselRepository) GetOrCreateUserVessel(_ context.Context, sessionId, userId uuid.UUID) (*entity.UserVessel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.t.userVessels {
		if v.SessionId == sessionId && v.UserId == userId {
			out := cloneUserVessel(v)
			return &out, nil
		}
	}
	v := entity.UserVessel{SessionId: sessionId, UserId: userId}
	r.s.stamp(&v.Id, &v.CreatedAt)
	r.s.t.userVessels = append(r.s.t.userVessels, v)
	r.tx.wrote(tableUserVessels, v.Id)
	return &v, nil
}

func (r *vesselRepository) FindUserVessel(_ context.Context, sessionId, userId uuid.UUID) (*entity.UserVessel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.t.userVessels {
		if v.SessionId == sessionId && v.UserId == userId {
			out := cloneUserVessel(v)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *vesselRepository) MarkNeedsExtracted(_ context.Context, vesselId uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.t.userVessels {
		v := &r.s.t.userVessels[i]
		if v.Id != vesselId {
			continue
		}
		if v.NeedsExtractedAt != nil {
			return false, nil
		}
		v.NeedsExtractedAt = copyTime(&at)
		r.tx.wrote(tableUserVessels, v.Id)
		return true, nil
	}
	return false, nil
}

func (r *vesselRepository) GetOrCreateSharedVessel(_ context.Context, sessionId uuid.UUID) (*entity.SharedVessel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.t.sharedVessels {
		if v.SessionId == sessionId {
			out := cloneSharedVessel(v)
			return &out, nil
		}
	}
	v := entity.SharedVessel{SessionId: sessionId}
	r.s.stamp(&v.Id, &v.CreatedAt)
	r.s.t.sharedVessels = append(r.s.t.sharedVessels, v)
	r.tx.wrote(tableSharedVessels, v.Id)
	out := cloneSharedVessel(v)
	return &out, nil
}

func (r *vesselRepository) FindSharedVesselForUpdate(_ context.Context, sessionId uuid.UUID) (*entity.SharedVessel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.t.sharedVessels {
		if v.SessionId == sessionId {
			out := cloneSharedVessel(v)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *vesselRepository) UpdateSharedVessel(_ context.Context, vessel *entity.SharedVessel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.t.sharedVessels {
		if r.s.t.sharedVessels[i].Id == vessel.Id {
			r.s.t.sharedVessels[i] = cloneSharedVessel(*vessel)
			r.tx.wrote(tableSharedVessels, vessel.Id)
			return nil
		}
	}
	return nil
}
