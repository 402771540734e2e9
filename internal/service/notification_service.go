package service

import (
	"context"
	"fmt"
	"time"

	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/pkg/events"
	pktNats "reconcile-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, eventType string, data interface{})
}

const notificationConsumer = "notif-service-worker"

type NotificationService struct {
	uowFactory unitofwork.RepositoryFactory
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(uowFactory unitofwork.RepositoryFactory, sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		uowFactory: uowFactory,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus. Without a subscriber the partner
// gateway hands events to HandleEvent directly.
func (s *NotificationService) Start(ctx context.Context) {
	if s.subscriber == nil {
		s.logger.Warn("NotificationService", "No NATS subscriber, events are delivered in-process", nil)
		return
	}

	err := s.subscriber.Subscribe(ctx, pktNats.AllEvents, notificationConsumer, s.HandleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

// HandleEvent persists one inbox entry for the event's target participant and
// pushes it to their live connection.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	userId, err := uuidFromPayload(payload, events.KeyUserID)
	if err != nil {
		s.logger.Warn("NotificationService", fmt.Sprintf("Dropping event %s without target", event.EventType()), map[string]interface{}{"error": err.Error()})
		return nil
	}

	notif := buildNotification(userId, event)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NotificationRepository().Create(ctx, notif); err != nil {
		s.logger.Error("NotificationService", fmt.Sprintf("Error saving notification for user %s", userId), map[string]interface{}{"error": err.Error()})
		return err
	}

	if s.delivery != nil {
		s.delivery.Send(userId, event.EventType(), toNotificationResponse(notif))
	}
	return nil
}

func buildNotification(userId uuid.UUID, event events.Event) *entity.Notification {
	payload := event.Payload()
	tmpl := constant.TemplateFor(event.EventType())

	var sessionId *uuid.UUID
	if sid, err := uuidFromPayload(payload, events.KeySessionID); err == nil {
		sessionId = &sid
	}

	metadata := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		if k == events.KeyUserID {
			continue
		}
		metadata[k] = v
	}
	if sessionId != nil {
		metadata["action_url"] = fmt.Sprintf("/sessions/%s", sessionId)
	}

	createdAt := event.Timestamp()
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &entity.Notification{
		Id:        uuid.New(),
		UserId:    userId,
		SessionId: sessionId,
		TypeCode:  event.EventType(),
		Title:     tmpl.Title,
		Message:   tmpl.Message,
		Metadata:  metadata,
		CreatedAt: createdAt,
	}
}

func uuidFromPayload(payload map[string]interface{}, key string) (uuid.UUID, error) {
	switch v := payload[key].(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, fmt.Errorf("payload key %q missing", key)
	}
}

func toNotificationResponse(n *entity.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		Id:        n.Id,
		SessionId: n.SessionId,
		TypeCode:  n.TypeCode,
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// GetNotifications fetches notifications for a user.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) (*dto.NotificationListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	items, total, err := uow.NotificationRepository().FindByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	res := &dto.NotificationListResponse{Items: make([]dto.NotificationResponse, 0, len(items)), Total: total}
	for _, n := range items {
		res.Items = append(res.Items, toNotificationResponse(n))
	}
	return res, nil
}

// GetUnreadCount fetches unread count.
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().CountUnread(ctx, userID)
}

// MarkAsRead marks one of the user's notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().MarkAsRead(ctx, userID, id)
}

// MarkAllAsRead marks all notifications as read for a user.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().MarkAllAsRead(ctx, userID)
}
