package dto

import (
	"time"

	"github.com/google/uuid"
)

type NeedResponse struct {
	Id          uuid.UUID `json:"id"`
	Category    string    `json:"category"`
	Need        string    `json:"need"`
	Evidence    []string  `json:"evidence"`
	Confidence  float64   `json:"confidence"`
	AiSuggested bool      `json:"ai_suggested"`
	Confirmed   bool      `json:"confirmed"`
	CreatedAt   time.Time `json:"created_at"`
}

// NeedsResponse carries Extracting=true with no needs while another request
// is running the extraction for the same participant.
type NeedsResponse struct {
	Extracting bool           `json:"extracting"`
	Needs      []NeedResponse `json:"needs"`
}

type AddNeedRequest struct {
	Category string `json:"category" validate:"required"`
	Need     string `json:"need" validate:"required,max=500"`
}

type NeedCorrection struct {
	NeedId   uuid.UUID `json:"need_id" validate:"required"`
	Need     string    `json:"need" validate:"max=500"`
	Category string    `json:"category"`
}

type ConfirmNeedsRequest struct {
	NeedIds     []uuid.UUID      `json:"need_ids" validate:"required,min=1"`
	Corrections []NeedCorrection `json:"corrections" validate:"dive"`
}

type ConsentNeedsRequest struct {
	NeedIds []uuid.UUID `json:"need_ids" validate:"required,min=1"`
}

type ConsentNeedsResponse struct {
	StageActionResult
	CommonGroundReady   bool `json:"common_ground_ready"`
	CommonGroundPending bool `json:"common_ground_pending"`
}

type AddNeedResponse struct {
	StageActionResult
	Need *NeedResponse `json:"need,omitempty"`
}
