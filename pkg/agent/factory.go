package agent

import (
	"fmt"

	"contextcore/pkg/agent/internal/llmimpl/anthropic"
	"contextcore/pkg/agent/internal/llmimpl/google"
	"contextcore/pkg/agent/internal/llmimpl/ollama"
	"contextcore/pkg/agent/internal/llmimpl/openaiofficial"
	"contextcore/pkg/agent/llm"
)

// Supported LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// ClientConfig selects and configures an LLM provider.
type ClientConfig struct {
	// Provider is one of the Provider constants.
	Provider string
	// APIKey authenticates against hosted providers. Ignored for ollama.
	APIKey string
	// Model selects the provider model. Empty uses the provider default.
	Model string
	// HostURL points at the Ollama server. Ignored for hosted providers.
	HostURL string
}

// NewLLMClient constructs the LLM client for the given provider config.
func NewLLMClient(cfg ClientConfig) (llm.LLMClient, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		if cfg.Model == "" {
			return anthropic.NewClaudeClient(cfg.APIKey), nil
		}
		return anthropic.NewClaudeClientWithModel(cfg.APIKey, cfg.Model), nil

	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		if cfg.Model == "" {
			return openaiofficial.NewOfficialClient(cfg.APIKey), nil
		}
		return openaiofficial.NewOfficialClientWithModel(cfg.APIKey, cfg.Model), nil

	case ProviderGoogle:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("google provider requires an API key")
		}
		model := cfg.Model
		if model == "" {
			model = google.DefaultModel
		}
		return google.NewGeminiClientWithModel(cfg.APIKey, model), nil

	case ProviderOllama:
		host := cfg.HostURL
		if host == "" {
			host = "http://localhost:11434"
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("ollama provider requires a model name")
		}
		return ollama.NewOllamaClientWithModel(host, cfg.Model), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
