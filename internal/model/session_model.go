package model

import (
	"time"

	"github.com/google/uuid"
)

type Relationship struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Relationship) TableName() string {
	return "relationships"
}

type RelationshipMember struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RelationshipId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_relationship_member_user,priority:1;uniqueIndex:idx_relationship_member_slot,priority:1"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_relationship_member_user,priority:2;index"`
	Slot           string    `gorm:"type:varchar(1);not null;uniqueIndex:idx_relationship_member_slot,priority:2"`
	JoinedAt       time.Time `gorm:"not null"`
}

func (RelationshipMember) TableName() string {
	return "relationship_members"
}

type Session struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RelationshipId uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedBy      uuid.UUID `gorm:"type:uuid;not null;index"`
	Status         string    `gorm:"type:varchar(20);not null;default:'CREATED';index"`
	InvitationCode string    `gorm:"type:varchar(32);not null;uniqueIndex"`
	InviteeEmail   string    `gorm:"type:varchar(255)"`
	InviteeName    string    `gorm:"type:varchar(255)"`
	InviterName    string    `gorm:"type:varchar(255)"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
	ResolvedAt     *time.Time
}

func (Session) TableName() string {
	return "sessions"
}
