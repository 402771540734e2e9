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

type CommonGroundRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CommonGroundMapper
}

func NewCommonGroundRepository(db *gorm.DB) contract.CommonGroundRepository {
	return &CommonGroundRepositoryImpl{
		db:     db,
		mapper: mapper.NewCommonGroundMapper(),
	}
}

func (r *CommonGroundRepositoryImpl) CreateBulk(ctx context.Context, items []*entity.CommonGround) error {
	if len(items) == 0 {
		return nil
	}
	models := r.mapper.ToModels(items)
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*items[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *CommonGroundRepositoryImpl) Update(ctx context.Context, item *entity.CommonGround) error {
	m := r.mapper.ToModel(item)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*item = *r.mapper.ToEntity(m)
	return nil
}

func (r *CommonGroundRepositoryImpl) FindBySharedVessel(ctx context.Context, sharedVesselId uuid.UUID) ([]*entity.CommonGround, error) {
	var models []*model.CommonGround
	query := applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedAsc),
		specification.BySharedVesselID{SharedVesselID: sharedVesselId})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
