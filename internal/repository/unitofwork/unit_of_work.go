package unitofwork

import (
	"context"

	"reconcile-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	StageProgressRepository() contract.StageProgressRepository
	VesselRepository() contract.VesselRepository
	IdentifiedNeedRepository() contract.IdentifiedNeedRepository
	CommonGroundRepository() contract.CommonGroundRepository
	ConsentRepository() contract.ConsentRepository
	MessageRepository() contract.MessageRepository
	NotificationRepository() contract.NotificationRepository
}
