package memory

import (
	"context"
	"sort"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

type sessionRepository struct {
	s  *Store
	tx *unitOfWork
}

func (r *sessionRepository) CreateRelationship(_ context.Context, relationship *entity.Relationship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&relationship.Id, &relationship.CreatedAt)
	r.s.t.relationships = append(r.s.t.relationships, *relationship)
	r.tx.wrote(tableRelationships, relationship.Id)
	return nil
}

func (r *sessionRepository) AddMember(_ context.Context, member *entity.RelationshipMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.t.members {
		if m.RelationshipId != member.RelationshipId {
			continue
		}
		if m.UserId == member.UserId || m.Slot == member.Slot {
			return ErrDuplicateKey
		}
	}
	r.s.stamp(&member.Id, &member.JoinedAt)
	r.s.t.members = append(r.s.t.members, *member)
	r.tx.wrote(tableMembers, member.Id)
	return nil
}

func (r *sessionRepository) Create(_ context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.t.sessions {
		if existing.InvitationCode == session.InvitationCode {
			return ErrDuplicateKey
		}
	}
	r.s.stamp(&session.Id, &session.CreatedAt)
	r.s.t.sessions = append(r.s.t.sessions, cloneSession(*session))
	r.tx.wrote(tableSessions, session.Id)
	return nil
}

func (r *sessionRepository) Update(_ context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.t.sessions {
		if r.s.t.sessions[i].Id == session.Id {
			now := r.s.now()
			session.UpdatedAt = &now
			r.s.t.sessions[i] = cloneSession(*session)
			r.tx.wrote(tableSessions, session.Id)
			return nil
		}
	}
	return nil
}

func (r *sessionRepository) FindById(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	return r.find(func(s entity.Session) bool { return s.Id == id }), nil
}

func (r *sessionRepository) FindByInvitationCode(_ context.Context, code string) (*entity.Session, error) {
	return r.find(func(s entity.Session) bool { return s.InvitationCode == code }), nil
}

func (r *sessionRepository) find(match func(entity.Session) bool) *entity.Session {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, s := range r.s.t.sessions {
		if !match(s) {
			continue
		}
		out := cloneSession(s)
		for _, m := range r.s.t.members {
			if m.RelationshipId == out.RelationshipId {
				member := m
				out.Members = append(out.Members, &member)
			}
		}
		sort.SliceStable(out.Members, func(i, j int) bool { return out.Members[i].Slot < out.Members[j].Slot })
		return &out
	}
	return nil
}
