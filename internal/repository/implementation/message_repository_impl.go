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

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageMapper(),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.ToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) FindHistory(ctx context.Context, sessionId, userId uuid.UUID) ([]*entity.Message, error) {
	var models []*model.Message
	query := applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedAsc),
		specification.ByParticipant{SessionID: sessionId, UserID: userId})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Message, len(models))
	for i, m := range models {
		out[i] = r.mapper.ToEntity(m)
	}
	return out, nil
}
