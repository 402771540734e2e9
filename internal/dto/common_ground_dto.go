package dto

import (
	"time"

	"github.com/google/uuid"
)

const (
	CommonGroundNotReady  = "not_ready"
	CommonGroundComputing = "computing"
	CommonGroundReady     = "ready"
)

type CommonGroundItemResponse struct {
	Id                 uuid.UUID  `json:"id"`
	Category           string     `json:"category"`
	Need               string     `json:"need"`
	ConfirmedByMe      bool       `json:"confirmed_by_me"`
	ConfirmedByPartner bool       `json:"confirmed_by_partner"`
	ConfirmedAt        *time.Time `json:"confirmed_at"`
}

// CommonGroundResponse separates "not analysed yet" from "analysed, no overlap"
// through Status and NoOverlap.
type CommonGroundResponse struct {
	Status    string                     `json:"status"`
	NoOverlap bool                       `json:"no_overlap"`
	Items     []CommonGroundItemResponse `json:"items"`
}

type ConfirmCommonGroundRequest struct {
	CommonGroundIds []uuid.UUID `json:"common_ground_ids"`
	NoOverlap       bool        `json:"no_overlap"`
}

type ConfirmCommonGroundResponse struct {
	StageActionResult
	SharedStageCompleted bool `json:"shared_stage_completed"`
}
