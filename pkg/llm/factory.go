package llm

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Config holds classifier provider configuration
type Config struct {
	Provider ProviderType // "openai", "relay" or "auto"

	// OpenAI config
	OpenAIAPIKey string
	OpenAIModel  string // e.g. "gpt-4o-mini"

	// Relay config
	RelayWorkDir string // where prompt files are written
}

// NewClassifier creates a Classifier based on the config.
// This is the factory function - switch provider by changing config.Provider.
func NewClassifier(cfg Config, logger *log.Logger) (Classifier, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger), nil

	case ProviderRelay:
		return NewRelayClassifier(cfg.RelayWorkDir, logger)

	default:
		// Default to OpenAI if an API key is available, otherwise relay.
		if cfg.OpenAIAPIKey != "" {
			return NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger), nil
		}
		return NewRelayClassifier(cfg.RelayWorkDir, logger)
	}
}
