package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	InviteeEmail string `json:"invitee_email" validate:"required,email"`
	InviteeName  string `json:"invitee_name" validate:"max=120"`
	InviterName  string `json:"inviter_name" validate:"max=120"`
}

type SessionMemberResponse struct {
	UserId   uuid.UUID `json:"user_id"`
	Slot     string    `json:"slot"`
	JoinedAt time.Time `json:"joined_at"`
}

type SessionResponse struct {
	Id             uuid.UUID               `json:"id"`
	RelationshipId uuid.UUID               `json:"relationship_id"`
	Status         string                  `json:"status"`
	CreatedBy      uuid.UUID               `json:"created_by"`
	InvitationCode string                  `json:"invitation_code,omitempty"`
	InviteeEmail   string                  `json:"invitee_email,omitempty"`
	InviteeName    string                  `json:"invitee_name,omitempty"`
	Members        []SessionMemberResponse `json:"members"`
	CreatedAt      time.Time               `json:"created_at"`
	ResolvedAt     *time.Time              `json:"resolved_at"`
}
