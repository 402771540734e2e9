package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConsentDecision string

const (
	ConsentGranted ConsentDecision = "GRANTED"
	ConsentDenied  ConsentDecision = "DENIED"
)

const ConsentTargetIdentifiedNeed = "IDENTIFIED_NEED"

// ConsentRecord is an append-only audit entry authorising a reveal to the partner.
type ConsentRecord struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	RequestedBy uuid.UUID
	TargetType  string
	TargetId    uuid.UUID
	Decision    ConsentDecision
	DecidedAt   time.Time
}
