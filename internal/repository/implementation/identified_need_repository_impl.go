package implementation

import (
	"context"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/mapper"
	"reconcile-be/internal/model"
	"reconcile-be/internal/repository/contract"
	"reconcile-be/internal/repository/scope"
	"reconcile-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IdentifiedNeedRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NeedMapper
}

func NewIdentifiedNeedRepository(db *gorm.DB) contract.IdentifiedNeedRepository {
	return &IdentifiedNeedRepositoryImpl{
		db:     db,
		mapper: mapper.NewNeedMapper(),
	}
}

func (r *IdentifiedNeedRepositoryImpl) Create(ctx context.Context, need *entity.IdentifiedNeed) error {
	m := r.mapper.ToModel(need)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*need = *r.mapper.ToEntity(m)
	return nil
}

func (r *IdentifiedNeedRepositoryImpl) CreateBulk(ctx context.Context, needs []*entity.IdentifiedNeed) error {
	if len(needs) == 0 {
		return nil
	}
	models := r.mapper.ToModels(needs)
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*needs[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *IdentifiedNeedRepositoryImpl) Update(ctx context.Context, need *entity.IdentifiedNeed) error {
	m := r.mapper.ToModel(need)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*need = *r.mapper.ToEntity(m)
	return nil
}

func (r *IdentifiedNeedRepositoryImpl) FindByVessel(ctx context.Context, vesselId uuid.UUID) ([]*entity.IdentifiedNeed, error) {
	var models []*model.IdentifiedNeed
	query := applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedAsc), specification.ByVesselID{VesselID: vesselId})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
