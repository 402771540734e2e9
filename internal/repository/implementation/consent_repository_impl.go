package implementation

import (
	"context"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/mapper"
	"reconcile-be/internal/model"
	"reconcile-be/internal/repository/contract"
	"reconcile-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConsentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConsentMapper
}

func NewConsentRepository(db *gorm.DB) contract.ConsentRepository {
	return &ConsentRepositoryImpl{
		db:     db,
		mapper: mapper.NewConsentMapper(),
	}
}

func (r *ConsentRepositoryImpl) Create(ctx context.Context, record *entity.ConsentRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *ConsentRepositoryImpl) FindByRequester(ctx context.Context, sessionId, userId uuid.UUID) ([]*entity.ConsentRecord, error) {
	var models []*model.ConsentRecord
	query := applySpecifications(r.db.WithContext(ctx),
		specification.BySessionID{SessionID: sessionId},
		specification.Filter("requested_by", userId),
		specification.OrderBy{Field: "decided_at"})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.ConsentRecord, len(models))
	for i, m := range models {
		out[i] = r.mapper.ToEntity(m)
	}
	return out, nil
}
