package llm

import (
	"fmt"
	"os"
	"strings"

	"certo/internal/model"
)

// NewProvider creates a review provider based on configuration. An
// empty provider name disables llm checks (nil, nil).
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the runtime model.LLMConfig, filling API
// keys and endpoints from the environment when the config leaves them
// empty.
func ConfigFromModel(mc model.LLMConfig) Config {
	cfg := Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}

	if cfg.APIKey == "" {
		switch strings.ToLower(cfg.Provider) {
		case "openai":
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.BaseURL == "" && strings.ToLower(cfg.Provider) == "ollama" {
		cfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	return cfg
}
