package unitofwork

import (
	"context"
	"fmt"

	"reconcile-be/internal/repository/contract"
	"reconcile-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) SessionRepository() contract.SessionRepository {
	return implementation.NewSessionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) StageProgressRepository() contract.StageProgressRepository {
	return implementation.NewStageProgressRepository(u.getDB())
}

func (u *UnitOfWorkImpl) VesselRepository() contract.VesselRepository {
	return implementation.NewVesselRepository(u.getDB())
}

func (u *UnitOfWorkImpl) IdentifiedNeedRepository() contract.IdentifiedNeedRepository {
	return implementation.NewIdentifiedNeedRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CommonGroundRepository() contract.CommonGroundRepository {
	return implementation.NewCommonGroundRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ConsentRepository() contract.ConsentRepository {
	return implementation.NewConsentRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MessageRepository() contract.MessageRepository {
	return implementation.NewMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) NotificationRepository() contract.NotificationRepository {
	return implementation.NewNotificationRepository(u.getDB())
}
