package mapper

import (
	"sort"
	"time"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session, members []model.RelationshipMember) *entity.Session {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	sorted := make([]model.RelationshipMember, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Slot < sorted[j].Slot })

	out := &entity.Session{
		Id:             s.Id,
		RelationshipId: s.RelationshipId,
		CreatedBy:      s.CreatedBy,
		Status:         entity.SessionStatus(s.Status),
		InvitationCode: s.InvitationCode,
		InviteeEmail:   s.InviteeEmail,
		InviteeName:    s.InviteeName,
		InviterName:    s.InviterName,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
		ResolvedAt:     s.ResolvedAt,
		Members:        make([]*entity.RelationshipMember, 0, len(sorted)),
	}
	for i := range sorted {
		out.Members = append(out.Members, m.MemberToEntity(&sorted[i]))
	}
	return out
}

func (m *SessionMapper) ToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Session{
		Id:             s.Id,
		RelationshipId: s.RelationshipId,
		CreatedBy:      s.CreatedBy,
		Status:         string(s.Status),
		InvitationCode: s.InvitationCode,
		InviteeEmail:   s.InviteeEmail,
		InviteeName:    s.InviteeName,
		InviterName:    s.InviterName,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
		ResolvedAt:     s.ResolvedAt,
	}
}

func (m *SessionMapper) MemberToEntity(r *model.RelationshipMember) *entity.RelationshipMember {
	if r == nil {
		return nil
	}
	return &entity.RelationshipMember{
		Id:             r.Id,
		RelationshipId: r.RelationshipId,
		UserId:         r.UserId,
		Slot:           entity.Slot(r.Slot),
		JoinedAt:       r.JoinedAt,
	}
}

func (m *SessionMapper) MemberToModel(r *entity.RelationshipMember) *model.RelationshipMember {
	if r == nil {
		return nil
	}
	return &model.RelationshipMember{
		Id:             r.Id,
		RelationshipId: r.RelationshipId,
		UserId:         r.UserId,
		Slot:           string(r.Slot),
		JoinedAt:       r.JoinedAt,
	}
}
