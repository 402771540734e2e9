package implementation

import (
	"context"
	"errors"
	"time"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/mapper"
	"reconcile-be/internal/model"
	"reconcile-be/internal/repository/contract"
	"reconcile-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VesselRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.VesselMapper
}

func NewVesselRepository(db *gorm.DB) contract.VesselRepository {
	return &VesselRepositoryImpl{
		db:     db,
		mapper: mapper.NewVesselMapper(),
	}
}

// GetOrCreateUserVessel inserts with ON CONFLICT DO NOTHING and re-reads, so two
// concurrent first calls converge on the same row.
func (r *VesselRepositoryImpl) GetOrCreateUserVessel(ctx context.Context, sessionId, userId uuid.UUID) (*entity.UserVessel, error) {
	candidate := &model.UserVessel{Id: uuid.New(), SessionId: sessionId, UserId: userId}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(candidate).Error
	if err != nil {
		return nil, err
	}
	return r.FindUserVessel(ctx, sessionId, userId)
}

func (r *VesselRepositoryImpl) FindUserVessel(ctx context.Context, sessionId, userId uuid.UUID) (*entity.UserVessel, error) {
	var m model.UserVessel
	query := applySpecifications(r.db.WithContext(ctx), specification.ByParticipant{SessionID: sessionId, UserID: userId})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.UserVesselToEntity(&m), nil
}

func (r *VesselRepositoryImpl) MarkNeedsExtracted(ctx context.Context, vesselId uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.UserVessel{}).
		Where("id = ? AND needs_extracted_at IS NULL", vesselId).
		Update("needs_extracted_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *VesselRepositoryImpl) GetOrCreateSharedVessel(ctx context.Context, sessionId uuid.UUID) (*entity.SharedVessel, error) {
	candidate := &model.SharedVessel{Id: uuid.New(), SessionId: sessionId}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(candidate).Error
	if err != nil {
		return nil, err
	}
	return r.findShared(ctx, specification.BySessionID{SessionID: sessionId})
}

func (r *VesselRepositoryImpl) FindSharedVesselForUpdate(ctx context.Context, sessionId uuid.UUID) (*entity.SharedVessel, error) {
	return r.findShared(ctx, specification.BySessionID{SessionID: sessionId}, specification.ForUpdate{})
}

func (r *VesselRepositoryImpl) UpdateSharedVessel(ctx context.Context, vessel *entity.SharedVessel) error {
	m := r.mapper.SharedVesselToModel(vessel)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*vessel = *r.mapper.SharedVesselToEntity(m)
	return nil
}

func (r *VesselRepositoryImpl) findShared(ctx context.Context, specs ...specification.Specification) (*entity.SharedVessel, error) {
	var m model.SharedVessel
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SharedVesselToEntity(&m), nil
}
