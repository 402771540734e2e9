// Package memory is a process-local implementation of the repository contracts,
// selected with DB_DRIVER=memory for development and used by service tests.
//
// Transactions are serialized: Begin holds the store's transaction mutex until
// Commit or Rollback. A transaction remembers the rows it wrote and Rollback
// puts only those rows back to their state at Begin, so writes made outside
// the transaction survive it. Reads and writes outside a transaction see the
// latest state.
package memory

import (
	"errors"
	"sync"
	"time"

	"reconcile-be/internal/entity"

	"github.com/google/uuid"
)

var ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

type tables struct {
	relationships []entity.Relationship
	members       []entity.RelationshipMember
	sessions      []entity.Session
	progress      []entity.StageProgress
	userVessels   []entity.UserVessel
	sharedVessels []entity.SharedVessel
	needs         []entity.IdentifiedNeed
	commonGround  []entity.CommonGround
	consents      []entity.ConsentRecord
	messages      []entity.Message
	notifications []entity.Notification
}

type table string

const (
	tableRelationships table = "relationships"
	tableMembers       table = "relationship_members"
	tableSessions      table = "sessions"
	tableProgress      table = "stage_progress"
	tableUserVessels   table = "user_vessels"
	tableSharedVessels table = "shared_vessels"
	tableNeeds         table = "identified_needs"
	tableCommonGround  table = "common_ground"
	tableConsents      table = "consent_records"
	tableMessages      table = "messages"
	tableNotifications table = "notifications"
)

type rowKey struct {
	table table
	id    uuid.UUID
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	t    tables
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) snapshot() tables {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out tables
	out.relationships = append(out.relationships, s.t.relationships...)
	out.members = append(out.members, s.t.members...)
	for _, v := range s.t.sessions {
		out.sessions = append(out.sessions, cloneSession(v))
	}
	for _, v := range s.t.progress {
		out.progress = append(out.progress, cloneProgress(v))
	}
	for _, v := range s.t.userVessels {
		out.userVessels = append(out.userVessels, cloneUserVessel(v))
	}
	for _, v := range s.t.sharedVessels {
		out.sharedVessels = append(out.sharedVessels, cloneSharedVessel(v))
	}
	for _, v := range s.t.needs {
		out.needs = append(out.needs, cloneNeed(v))
	}
	for _, v := range s.t.commonGround {
		out.commonGround = append(out.commonGround, cloneCommonGround(v))
	}
	out.consents = append(out.consents, s.t.consents...)
	out.messages = append(out.messages, s.t.messages...)
	for _, v := range s.t.notifications {
		out.notifications = append(out.notifications, cloneNotification(v))
	}
	return out
}

// revert returns every written row to its state in snap: rows created since
// are removed, changed rows are put back.
func (s *Store) revert(snap *tables, written map[rowKey]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range written {
		switch k.table {
		case tableRelationships:
			s.t.relationships = revertRow(s.t.relationships, snap.relationships, k.id, func(v entity.Relationship) uuid.UUID { return v.Id })
		case tableMembers:
			s.t.members = revertRow(s.t.members, snap.members, k.id, func(v entity.RelationshipMember) uuid.UUID { return v.Id })
		case tableSessions:
			s.t.sessions = revertRow(s.t.sessions, snap.sessions, k.id, func(v entity.Session) uuid.UUID { return v.Id })
		case tableProgress:
			s.t.progress = revertRow(s.t.progress, snap.progress, k.id, func(v entity.StageProgress) uuid.UUID { return v.Id })
		case tableUserVessels:
			s.t.userVessels = revertRow(s.t.userVessels, snap.userVessels, k.id, func(v entity.UserVessel) uuid.UUID { return v.Id })
		case tableSharedVessels:
			s.t.sharedVessels = revertRow(s.t.sharedVessels, snap.sharedVessels, k.id, func(v entity.SharedVessel) uuid.UUID { return v.Id })
		case tableNeeds:
			s.t.needs = revertRow(s.t.needs, snap.needs, k.id, func(v entity.IdentifiedNeed) uuid.UUID { return v.Id })
		case tableCommonGround:
			s.t.commonGround = revertRow(s.t.commonGround, snap.commonGround, k.id, func(v entity.CommonGround) uuid.UUID { return v.Id })
		case tableConsents:
			s.t.consents = revertRow(s.t.consents, snap.consents, k.id, func(v entity.ConsentRecord) uuid.UUID { return v.Id })
		case tableMessages:
			s.t.messages = revertRow(s.t.messages, snap.messages, k.id, func(v entity.Message) uuid.UUID { return v.Id })
		case tableNotifications:
			s.t.notifications = revertRow(s.t.notifications, snap.notifications, k.id, func(v entity.Notification) uuid.UUID { return v.Id })
		}
	}
}

func revertRow[T any](live, snap []T, id uuid.UUID, idOf func(T) uuid.UUID) []T {
	var before *T
	for i := range snap {
		if idOf(snap[i]) == id {
			before = &snap[i]
			break
		}
	}
	for i := range live {
		if idOf(live[i]) != id {
			continue
		}
		if before == nil {
			return append(live[:i], live[i+1:]...)
		}
		live[i] = *before
		return live
	}
	if before != nil {
		return append(live, *before)
	}
	return live
}

func (s *Store) stamp(id *uuid.UUID, createdAt *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if createdAt.IsZero() {
		*createdAt = s.now()
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneSession(s entity.Session) entity.Session {
	s.UpdatedAt = copyTime(s.UpdatedAt)
	s.ResolvedAt = copyTime(s.ResolvedAt)
	s.Members = nil
	return s
}

func cloneProgress(p entity.StageProgress) entity.StageProgress {
	p.Gates = p.Gates.Clone()
	p.StartedAt = copyTime(p.StartedAt)
	p.CompletedAt = copyTime(p.CompletedAt)
	p.UpdatedAt = copyTime(p.UpdatedAt)
	return p
}

func cloneUserVessel(v entity.UserVessel) entity.UserVessel {
	v.NeedsExtractedAt = copyTime(v.NeedsExtractedAt)
	return v
}

func cloneSharedVessel(v entity.SharedVessel) entity.SharedVessel {
	v.CommonGroundAnalyzedAt = copyTime(v.CommonGroundAnalyzedAt)
	v.UpdatedAt = copyTime(v.UpdatedAt)
	return v
}

func cloneNeed(n entity.IdentifiedNeed) entity.IdentifiedNeed {
	n.Evidence = append([]string(nil), n.Evidence...)
	n.UpdatedAt = copyTime(n.UpdatedAt)
	return n
}

func cloneCommonGround(c entity.CommonGround) entity.CommonGround {
	c.ConfirmedAt = copyTime(c.ConfirmedAt)
	return c
}

func cloneNotification(n entity.Notification) entity.Notification {
	n.SessionId = copyUUID(n.SessionId)
	n.ReadAt = copyTime(n.ReadAt)
	meta := make(map[string]interface{}, len(n.Metadata))
	for k, v := range n.Metadata {
		meta[k] = v
	}
	n.Metadata = meta
	return n
}
