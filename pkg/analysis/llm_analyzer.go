package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reconcile-be/pkg/llm"
)

const defaultRetryDelay = 2 * time.Second

// LLMAnalyzer implements Analyzer over any LLMProvider.
type LLMAnalyzer struct {
	provider   llm.LLMProvider
	retryDelay time.Duration
}

var _ Analyzer = &LLMAnalyzer{}

func NewLLMAnalyzer(provider llm.LLMProvider) *LLMAnalyzer {
	return &LLMAnalyzer{provider: provider, retryDelay: defaultRetryDelay}
}

// withRetry runs call again once after a temporary provider failure.
// Only used for analyses that are safe to repeat.
func (a *LLMAnalyzer) withRetry(ctx context.Context, call func() (string, error)) (string, error) {
	response, err := call()
	if err == nil || !llm.IsTemporary(err) {
		return response, err
	}
	select {
	case <-ctx.Done():
		return "", err
	case <-time.After(a.retryDelay):
	}
	return call()
}

func (a *LLMAnalyzer) FindNeeds(ctx context.Context, history []llm.Message) ([]NeedCandidate, error) {
	messages := append([]llm.Message{{Role: "system", Content: needsSystemPrompt}}, history...)
	messages = append(messages, llm.Message{Role: "user", Content: needsInstruction})

	response, err := a.withRetry(ctx, func() (string, error) {
		return a.provider.Chat(ctx, messages, llm.WithTemperature(0.0), llm.WithJSONMode(), llm.WithMaxTokens(1200))
	})
	if err != nil {
		return nil, err
	}
	return ParseNeeds(response)
}

func (a *LLMAnalyzer) FindOverlap(ctx context.Context, needsA, needsB []NeedSummary) ([]OverlapCandidate, error) {
	prompt, err := buildOverlapPrompt(needsA, needsB)
	if err != nil {
		return nil, err
	}
	response, err := a.withRetry(ctx, func() (string, error) {
		return a.provider.Generate(ctx, prompt, llm.WithTemperature(0.0), llm.WithJSONMode(), llm.WithMaxTokens(800))
	})
	if err != nil {
		return nil, err
	}
	return ParseOverlap(response)
}

func (a *LLMAnalyzer) TransitionMessage(ctx context.Context, tc TransitionContext) (string, error) {
	messages := []llm.Message{{Role: "system", Content: buildTransitionPrompt(tc)}}
	messages = append(messages, lastTurns(tc.History, 10)...)
	messages = append(messages, llm.Message{Role: "user", Content: "Write the transition message now."})

	response, err := a.provider.Chat(ctx, messages, llm.WithTemperature(0.7), llm.WithMaxTokens(300))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// ParseNeeds reads {"needs":[...]} out of a model response. Entries without a
// need text are dropped and confidence is clamped to [0,1].
func ParseNeeds(response string) ([]NeedCandidate, error) {
	raw := extractJSON(response)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in needs response", ErrMalformedResponse)
	}

	var parsed struct {
		Needs []NeedCandidate `json:"needs"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := make([]NeedCandidate, 0, len(parsed.Needs))
	for _, n := range parsed.Needs {
		n.Need = strings.TrimSpace(n.Need)
		if n.Need == "" {
			continue
		}
		if n.Confidence < 0 {
			n.Confidence = 0
		}
		if n.Confidence > 1 {
			n.Confidence = 1
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseOverlap reads {"commonGround":[...]} out of a model response. An empty
// list is a valid answer meaning no overlap.
func ParseOverlap(response string) ([]OverlapCandidate, error) {
	raw := extractJSON(response)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in overlap response", ErrMalformedResponse)
	}

	var parsed struct {
		CommonGround []OverlapCandidate `json:"commonGround"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := make([]OverlapCandidate, 0, len(parsed.CommonGround))
	for _, c := range parsed.CommonGround {
		c.Need = strings.TrimSpace(c.Need)
		if c.Need == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

func lastTurns(history []llm.Message, n int) []llm.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
