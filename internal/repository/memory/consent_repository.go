package memory

import (
	"context"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type consentRepository struct {
	s  *Store
	tx *unitOfWork
}

func (r *consentRepository) Create(_ context.Context, record *entity.ConsentRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&record.Id, &record.DecidedAt)
	r.s.t.consents = append(r.s.t.consents, *record)
	r.tx.wrote(tableConsents, record.Id)
	return nil
}

func (r *consentRepository) FindByRequester(_ context.Context, sessionId, userId uuid.UUID) ([]*entity.ConsentRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.ConsentRecord
	for _, c := range r.s.t.consents {
		if c.SessionId == sessionId && c.RequestedBy == userId {
			rec := c
			out = append(out, &rec)
		}
	}
	return out, nil
}
