package dto

import (
	"time"

	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
)

// StageActionResult is returned by every stage-gated action. Status "blocked"
// is a normal outcome: the request was valid but a precondition is not met yet.
type StageActionResult struct {
	Status           string   `json:"status"`
	Reason           string   `json:"reason,omitempty"`
	UnsatisfiedGates []string `json:"unsatisfied_gates,omitempty"`
	PartnerReady     *bool    `json:"partner_ready,omitempty"`
	Stage            int      `json:"stage"`
	StageStatus      string   `json:"stage_status,omitempty"`
}

type ParticipantProgress struct {
	UserId      uuid.UUID  `json:"user_id"`
	Slot        string     `json:"slot"`
	Stage       int        `json:"stage"`
	StageName   string     `json:"stage_name"`
	Status      string     `json:"status"`
	Gates       gate.Map   `json:"gates"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type ProgressResponse struct {
	SessionId     uuid.UUID            `json:"session_id"`
	SessionStatus string               `json:"session_status"`
	Me            ParticipantProgress  `json:"me"`
	Partner       *ParticipantProgress `json:"partner"`
}

type PublishTransitionMessage struct {
	SessionId uuid.UUID `json:"session_id"`
	UserId    uuid.UUID `json:"user_id"`
	From      int       `json:"from"`
	To        int       `json:"to"`
	Reason    string    `json:"reason"`
}
