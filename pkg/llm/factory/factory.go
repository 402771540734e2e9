package factory

import (
	"fmt"

	"reconcile-be/pkg/llm"
	"reconcile-be/pkg/llm/huggingface"
	"reconcile-be/pkg/llm/ollama"
)

const (
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"

	defaultOllamaURL = "http://localhost:11434"
)

// Config selects a provider. Each provider reads only its own base URL.
type Config struct {
	Provider       string
	Model          string
	OllamaBaseURL  string
	HFBaseURL      string
	HuggingFaceKey string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case ProviderOllama:
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case ProviderHuggingFace:
		if cfg.HuggingFaceKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an api key")
		}
		return huggingface.NewHuggingFaceProvider(cfg.HuggingFaceKey, cfg.HFBaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
