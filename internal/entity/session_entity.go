package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusCreated  SessionStatus = "CREATED"
	SessionStatusInvited  SessionStatus = "INVITED"
	SessionStatusActive   SessionStatus = "ACTIVE"
	SessionStatusPaused   SessionStatus = "PAUSED"
	SessionStatusResolved SessionStatus = "RESOLVED"
)

// Slot is the stable A/B position of a participant inside a relationship.
// The creator always holds SlotA and the invitee SlotB.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

type Relationship struct {
	Id        uuid.UUID
	CreatedAt time.Time
}

type RelationshipMember struct {
	Id             uuid.UUID
	RelationshipId uuid.UUID
	UserId         uuid.UUID
	Slot           Slot
	JoinedAt       time.Time
}

type Session struct {
	Id             uuid.UUID
	RelationshipId uuid.UUID
	CreatedBy      uuid.UUID
	Status         SessionStatus
	InvitationCode string
	InviteeEmail   string
	InviteeName    string
	InviterName    string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	ResolvedAt     *time.Time

	// Members is loaded alongside the session and ordered by slot.
	Members []*RelationshipMember
}

func (s *Session) Member(userId uuid.UUID) *RelationshipMember {
	for _, m := range s.Members {
		if m.UserId == userId {
			return m
		}
	}
	return nil
}

func (s *Session) IsMember(userId uuid.UUID) bool {
	return s.Member(userId) != nil
}

// Partner returns the other member, or false while the invitee has not joined.
func (s *Session) Partner(userId uuid.UUID) (uuid.UUID, bool) {
	for _, m := range s.Members {
		if m.UserId != userId {
			return m.UserId, true
		}
	}
	return uuid.Nil, false
}

// ParticipantIds returns member ids in slot order (A first).
func (s *Session) ParticipantIds() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Members))
	for _, slot := range []Slot{SlotA, SlotB} {
		for _, m := range s.Members {
			if m.Slot == slot {
				ids = append(ids, m.UserId)
			}
		}
	}
	return ids
}
