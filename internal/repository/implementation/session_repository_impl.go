package implementation

import (
	"context"
	"errors"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/mapper"
	"reconcile-be/internal/model"
	"reconcile-be/internal/repository/contract"
	"reconcile-be/internal/repository/scope"
	"reconcile-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) CreateRelationship(ctx context.Context, relationship *entity.Relationship) error {
	m := &model.Relationship{Id: relationship.Id, CreatedAt: relationship.CreatedAt}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	relationship.Id = m.Id
	relationship.CreatedAt = m.CreatedAt
	return nil
}

func (r *SessionRepositoryImpl) AddMember(ctx context.Context, member *entity.RelationshipMember) error {
	m := r.mapper.MemberToModel(member)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*member = *r.mapper.MemberToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *entity.Session) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	members := session.Members
	*session = *r.mapper.ToEntity(m, nil)
	session.Members = members
	return nil
}

func (r *SessionRepositoryImpl) Update(ctx context.Context, session *entity.Session) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	members := session.Members
	*session = *r.mapper.ToEntity(m, nil)
	session.Members = members
	return nil
}

func (r *SessionRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *SessionRepositoryImpl) FindByInvitationCode(ctx context.Context, code string) (*entity.Session, error) {
	return r.findOne(ctx, specification.Filter("invitation_code", code))
}

func (r *SessionRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	var m model.Session
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var members []model.RelationshipMember
	err := applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderBySlot),
		specification.ByRelationshipID{RelationshipID: m.RelationshipId}).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(&m, members), nil
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}
