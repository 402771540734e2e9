package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

const needsSystemPrompt = `You are a mediator's assistant. You read one participant's private conversation
about a conflict and identify the underlying human needs they express.`

const needsInstruction = `Identify the participant's needs from the conversation above.
Respond ONLY with JSON in this shape:
{"needs":[{"category":"SAFETY|CONNECTION|AUTONOMY|RECOGNITION|MEANING|FAIRNESS","need":"<one sentence>","evidence":["<short quote>"],"confidence":0.0}]}
Use at most 6 needs. Quote evidence verbatim from the participant's own words.`

func buildOverlapPrompt(needsA, needsB []NeedSummary) (string, error) {
	a, err := json.Marshal(needsA)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(needsB)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Two people in a conflict each confirmed the needs below.\n")
	sb.WriteString("Find needs that both of them hold in substance, even when worded differently.\n\n")
	sb.WriteString("PERSON A NEEDS:\n")
	sb.Write(a)
	sb.WriteString("\n\nPERSON B NEEDS:\n")
	sb.Write(b)
	sb.WriteString("\n\nRespond ONLY with JSON: {\"commonGround\":[{\"category\":\"<category>\",\"need\":\"<shared need in neutral words>\"}]}\n")
	sb.WriteString("Return {\"commonGround\":[]} when nothing overlaps. Do not invent overlap.")
	return sb.String(), nil
}

func buildTransitionPrompt(tc TransitionContext) string {
	return fmt.Sprintf(`You guide one participant through a structured conflict conversation.
They just moved from the %s stage to the %s stage (%s).
Write two or three warm sentences that acknowledge what they did and explain what happens next.
Do not quote their partner and do not reveal anything private.`, tc.From, tc.To, tc.Reason)
}
