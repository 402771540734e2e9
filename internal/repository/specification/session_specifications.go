package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// ByParticipant scopes rows to one participant of one session.
type ByParticipant struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
}

func (s ByParticipant) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ? AND user_id = ?", s.SessionID, s.UserID)
}

type ByStage struct {
	Stage int
}

func (s ByStage) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stage = ?", s.Stage)
}

type ByVesselID struct {
	VesselID uuid.UUID
}

func (s ByVesselID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("vessel_id = ?", s.VesselID)
}

type BySharedVesselID struct {
	SharedVesselID uuid.UUID
}

func (s BySharedVesselID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("shared_vessel_id = ?", s.SharedVesselID)
}

type ByRelationshipID struct {
	RelationshipID uuid.UUID
}

func (s ByRelationshipID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("relationship_id = ?", s.RelationshipID)
}

// ForUpdate takes a row lock (SELECT ... FOR UPDATE) for the rest of the transaction.
type ForUpdate struct{}

func (s ForUpdate) Apply(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
