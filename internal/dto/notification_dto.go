package dto

import (
	"time"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	Id        uuid.UUID              `json:"id"`
	SessionId *uuid.UUID             `json:"session_id"`
	TypeCode  string                 `json:"type_code"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at"`
	CreatedAt time.Time              `json:"created_at"`
}

type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
	Total int64                  `json:"total"`
}
