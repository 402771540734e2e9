package mapper

import (
	"encoding/json"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/model"

	"gorm.io/datatypes"
)

type NotificationMapper struct{}

func NewNotificationMapper() *NotificationMapper {
	return &NotificationMapper{}
}

func (m *NotificationMapper) ToEntity(n *model.Notification) *entity.Notification {
	if n == nil {
		return nil
	}
	meta := map[string]interface{}{}
	if len(n.Metadata) > 0 {
		// Metadata is informational; a malformed blob degrades to an empty map.
		_ = json.Unmarshal(n.Metadata, &meta)
	}
	return &entity.Notification{
		Id:        n.ID,
		UserId:    n.UserID,
		SessionId: n.SessionID,
		TypeCode:  n.TypeCode,
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  meta,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func (m *NotificationMapper) ToModel(n *entity.Notification) *model.Notification {
	if n == nil {
		return nil
	}
	metaJSON, _ := json.Marshal(n.Metadata)
	return &model.Notification{
		ID:        n.Id,
		UserID:    n.UserId,
		SessionID: n.SessionId,
		TypeCode:  n.TypeCode,
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  datatypes.JSON(metaJSON),
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
