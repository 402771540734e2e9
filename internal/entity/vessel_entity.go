package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserVessel is a participant's private container of derived content.
// NeedsExtractedAt is set once extraction has run, even when it found nothing.
type UserVessel struct {
	Id               uuid.UUID
	SessionId        uuid.UUID
	UserId           uuid.UUID
	NeedsExtractedAt *time.Time
	CreatedAt        time.Time
}

func (v *UserVessel) NeedsExtracted() bool {
	return v.NeedsExtractedAt != nil
}

// SharedVessel is the session-wide container holding common ground.
// CommonGroundAnalyzedAt separates "analysed, no overlap" from "not analysed yet".
type SharedVessel struct {
	Id                     uuid.UUID
	SessionId              uuid.UUID
	CommonGroundAnalyzedAt *time.Time
	CreatedAt              time.Time
	UpdatedAt              *time.Time
}

func (v *SharedVessel) Analyzed() bool {
	return v.CommonGroundAnalyzedAt != nil
}
