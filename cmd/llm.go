package cmd

import (
	"errors"
	"fmt"

	"github.com/joescharf/fixxy/internal/config"
	"github.com/joescharf/fixxy/internal/llm"
)

var errNoAPIKey = errors.New("no API key configured")

// newCompleter creates the provider client selected by llm.provider.
func newCompleter(cfg *config.Config) (llm.Completer, error) {
	params := llm.CompletionParams{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}

	switch cfg.LLM.Provider {
	case config.ProviderAnthropic:
		apiKey := cfg.AnthropicAPIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("%w: set anthropic.api_key or ANTHROPIC_API_KEY", errNoAPIKey)
		}
		params.Model = cfg.Anthropic.Model
		return llm.NewAnthropicCompleter(apiKey, params), nil
	default:
		apiKey := cfg.LLMAPIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("%w: set llm.api_key, TOGETHER_API_KEY or OPENAI_API_KEY", errNoAPIKey)
		}
		return llm.NewOpenAICompleter(apiKey, cfg.LLM.BaseURL, params), nil
	}
}
