package memory

import (
	"context"
	"fmt"

	"reconcile-be/internal/repository/contract"
	"reconcile-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type unitOfWork struct {
	s        *Store
	snapshot *tables
	written  map[rowKey]struct{}
}

// wrote records a row written inside the open transaction. Callers hold s.mu.
func (u *unitOfWork) wrote(t table, id uuid.UUID) {
	if u.snapshot == nil {
		return
	}
	u.written[rowKey{table: t, id: id}] = struct{}{}
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.snapshot != nil {
		return fmt.Errorf("transaction already started")
	}
	u.s.txMu.Lock()
	if err := ctx.Err(); err != nil {
		u.s.txMu.Unlock()
		return err
	}
	snap := u.s.snapshot()
	u.snapshot = &snap
	u.written = map[rowKey]struct{}{}
	return nil
}

func (u *unitOfWork) Commit() error {
	if u.snapshot == nil {
		return fmt.Errorf("no transaction to commit")
	}
	u.snapshot = nil
	u.written = nil
	u.s.txMu.Unlock()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.snapshot == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	u.s.revert(u.snapshot, u.written)
	u.snapshot = nil
	u.written = nil
	u.s.txMu.Unlock()
	return nil
}

func (u *unitOfWork) SessionRepository() contract.SessionRepository {
	return &sessionRepository{s: u.s, tx: u}
}

func (u *unitOfWork) StageProgressRepository() contract.StageProgressRepository {
	return &stageProgressRepository{s: u.s, tx: u}
}

func (u *unitOfWork) VesselRepository() contract.VesselRepository {
	return &vesselRepository{s: u.s, tx: u}
}

func (u *unitOfWork) IdentifiedNeedRepository() contract.IdentifiedNeedRepository {
	return &needRepository{s: u.s, tx: u}
}

func (u *unitOfWork) CommonGroundRepository() contract.CommonGroundRepository {
	return &commonGroundRepository{s: u.s, tx: u}
}

func (u *unitOfWork) ConsentRepository() contract.ConsentRepository {
	return &consentRepository{s: u.s, tx: u}
}

func (u *unitOfWork) MessageRepository() contract.MessageRepository {
	return &messageRepository{s: u.s, tx: u}
}

func (u *unitOfWork) NotificationRepository() contract.NotificationRepository {
	return &notificationRepository{s: u.s, tx: u}
}

type repositoryFactory struct {
	s *Store
}

func NewRepositoryFactory(s *Store) unitofwork.RepositoryFactory {
	return &repositoryFactory{s: s}
}

func (f *repositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{s: f.s}
}
