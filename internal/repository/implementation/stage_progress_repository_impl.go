package implementation

import (
	"context"
	"errors"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/mapper"
	"reconcile-be/internal/model"
	"reconcile-be/internal/repository/contract"
	"reconcile-be/internal/repository/scope"
	"reconcile-be/internal/repository/specification"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StageProgressRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.StageProgressMapper
}

func NewStageProgressRepository(db *gorm.DB) contract.StageProgressRepository {
	return &StageProgressRepositoryImpl{
		db:     db,
		mapper: mapper.NewStageProgressMapper(),
	}
}

func (r *StageProgressRepositoryImpl) Create(ctx context.Context, progress *entity.StageProgress) error {
	m, err := r.mapper.ToModel(progress)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	out, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*progress = *out
	return nil
}

func (r *StageProgressRepositoryImpl) Update(ctx context.Context, progress *entity.StageProgress) error {
	m, err := r.mapper.ToModel(progress)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	out, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*progress = *out
	return nil
}

func (r *StageProgressRepositoryImpl) FindCurrent(ctx context.Context, sessionId, userId uuid.UUID) (*entity.StageProgress, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Scopes(scope.OrderByStageDesc),
		specification.ByParticipant{SessionID: sessionId, UserID: userId})
}

func (r *StageProgressRepositoryImpl) FindCurrentForUpdate(ctx context.Context, sessionId, userId uuid.UUID) (*entity.StageProgress, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Scopes(scope.OrderByStageDesc),
		specification.ByParticipant{SessionID: sessionId, UserID: userId},
		specification.ForUpdate{})
}

func (r *StageProgressRepositoryImpl) FindByStage(ctx context.Context, sessionId, userId uuid.UUID, stage gate.Stage) (*entity.StageProgress, error) {
	return r.findOne(ctx, r.db.WithContext(ctx),
		specification.ByParticipant{SessionID: sessionId, UserID: userId},
		specification.ByStage{Stage: int(stage)})
}

func (r *StageProgressRepositoryImpl) FindAllBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.StageProgress, error) {
	var rows []*model.StageProgress
	query := applySpecifications(r.db.WithContext(ctx), specification.BySessionID{SessionID: sessionId})
	if err := query.Order("user_id ASC").Order("stage ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(rows)
}

func (r *StageProgressRepositoryImpl) findOne(ctx context.Context, db *gorm.DB, specs ...specification.Specification) (*entity.StageProgress, error) {
	var m model.StageProgress
	if err := applySpecifications(db, specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}
