package implementation

import (
	"context"
	"time"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/mapper"
	"reconcile-be/internal/model"
	"reconcile-be/internal/pkg/apperror"
	"reconcile-be/internal/repository/contract"
	"reconcile-be/internal/repository/scope"
	"reconcile-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NotificationMapper
}

func NewNotificationRepository(db *gorm.DB) contract.NotificationRepository {
	return &NotificationRepositoryImpl{
		db:     db,
		mapper: mapper.NewNotificationMapper(),
	}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, notification *entity.Notification) error {
	m := r.mapper.ToModel(notification)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*notification = *r.mapper.ToEntity(m)
	return nil
}

func (r *NotificationRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Notification, int64, error) {
	var notifications []*model.Notification
	var total int64

	db := applySpecifications(r.db.WithContext(ctx).Model(&model.Notification{}),
		specification.ByUserID{UserID: userId}).Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := applySpecifications(db.Scopes(scope.OrderByCreatedDesc),
		specification.Pagination{Limit: limit, Offset: offset}).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]*entity.Notification, len(notifications))
	for i, n := range notifications {
		out[i] = r.mapper.ToEntity(n)
	}
	return out, total, nil
}

func (r *NotificationRepositoryImpl) CountUnread(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) MarkAsRead(ctx context.Context, userId, notificationId uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationId, userId).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("notification", notificationId)
	}
	return nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(ctx context.Context, userId uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error
}
