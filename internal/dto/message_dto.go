package dto

import (
	"time"

	"github.com/google/uuid"
)

type RecordMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Stage     int       `json:"stage"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
