package contract

import (
	"context"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type SessionRepository interface {
	CreateRelationship(ctx context.Context, relationship *entity.Relationship) error
	AddMember(ctx context.Context, member *entity.RelationshipMember) error

	Create(ctx context.Context, session *entity.Session) error
	Update(ctx context.Context, session *entity.Session) error
	// FindById loads the session with its members ordered by slot; nil when absent.
	FindById(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	FindByInvitationCode(ctx context.Context, code string) (*entity.Session, error)
}
