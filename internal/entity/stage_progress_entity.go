package entity

import (
	"time"

	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
)

type StageStatus string

const (
	StageStatusNotStarted  StageStatus = "NOT_STARTED"
	StageStatusInProgress  StageStatus = "IN_PROGRESS"
	StageStatusGatePending StageStatus = "GATE_PENDING"
	StageStatusCompleted   StageStatus = "COMPLETED"
)

// StageProgress is one row per (session, participant, stage).
type StageProgress struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	UserId      uuid.UUID
	Stage       gate.Stage
	Status      StageStatus
	Gates       gate.Map
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func NewStageProgress(sessionId, userId uuid.UUID, stage gate.Stage, now time.Time) *StageProgress {
	return &StageProgress{
		Id:        uuid.New(),
		SessionId: sessionId,
		UserId:    userId,
		Stage:     stage,
		Status:    StageStatusInProgress,
		Gates:     gate.Map{},
		StartedAt: &now,
		CreatedAt: now,
	}
}

func (p *StageProgress) IsCompleted() bool {
	return p.Status == StageStatusCompleted
}

func (p *StageProgress) Complete(now time.Time) {
	p.Status = StageStatusCompleted
	p.CompletedAt = &now
	p.UpdatedAt = &now
}

// RefreshStatus moves an open row to GATE_PENDING once every gate of its
// stage is met. Completed rows are left alone.
func (p *StageProgress) RefreshStatus(now time.Time) {
	if p.IsCompleted() {
		return
	}
	if gate.AllSatisfied(p.Stage, p.Gates) {
		p.Status = StageStatusGatePending
	} else {
		p.Status = StageStatusInProgress
	}
	p.UpdatedAt = &now
}
