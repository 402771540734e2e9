// Package analysis wraps the conversational AI collaborator behind the three
// calls the session engine makes: need extraction, overlap analysis, and stage
// transition messages.
package analysis

import (
	"context"
	"errors"

	"reconcile-be/pkg/gate"
	"reconcile-be/pkg/llm"
)

// ErrMalformedResponse means the model answered but not with the expected JSON.
var ErrMalformedResponse = errors.New("analysis: malformed model response")

type NeedCandidate struct {
	Category   string   `json:"category"`
	Need       string   `json:"need"`
	Evidence   []string `json:"evidence"`
	Confidence float64  `json:"confidence"`
}

type NeedSummary struct {
	Category string `json:"category"`
	Need     string `json:"need"`
}

type OverlapCandidate struct {
	Category string `json:"category"`
	Need     string `json:"need"`
}

type TransitionContext struct {
	From    gate.Stage
	To      gate.Stage
	Reason  string
	History []llm.Message
}

type Analyzer interface {
	FindNeeds(ctx context.Context, history []llm.Message) ([]NeedCandidate, error)
	FindOverlap(ctx context.Context, needsA, needsB []NeedSummary) ([]OverlapCandidate, error)
	TransitionMessage(ctx context.Context, tc TransitionContext) (string, error)
}
