package memory

import (
	"context"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/apperror"

	"github.com/google/uuid"
)

type notificationRepository struct {
	s  *Store
	tx *unitOfWork
}

func (r *notificationRepository) Create(_ context.Context, notification *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&notification.Id, &notification.CreatedAt)
	r.s.t.notifications = append(r.s.t.notifications, cloneNotification(*notification))
	r.tx.wrote(tableNotifications, notification.Id)
	return nil
}

func (r *notificationRepository) FindByUser(_ context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Notification, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*entity.Notification
	// newest first
	for i := len(r.s.t.notifications) - 1; i >= 0; i-- {
		n := r.s.t.notifications[i]
		if n.UserId == userId {
			c := cloneNotification(n)
			all = append(all, &c)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []*entity.Notification{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *notificationRepository) CountUnread(_ context.Context, userId uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, n := range r.s.t.notifications {
		if n.UserId == userId && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) MarkAsRead(_ context.Context, userId, notificationId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.t.notifications {
		n := &r.s.t.notifications[i]
		if n.Id == notificationId && n.UserId == userId {
			now := r.s.now()
			n.IsRead = true
			n.ReadAt = &now
			r.tx.wrote(tableNotifications, n.Id)
			return nil
		}
	}
	return apperror.NotFound("notification", notificationId)
}

func (r *notificationRepository) MarkAllAsRead(_ context.Context, userId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	for i := range r.s.t.notifications {
		n := &r.s.t.notifications[i]
		if n.UserId == userId && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			r.tx.wrote(tableNotifications, n.Id)
		}
	}
	return nil
}
