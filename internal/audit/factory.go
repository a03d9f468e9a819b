package audit

import (
	"context"
	"fmt"
)

// ProviderConfig selects and configures the language model behind the audit.
type ProviderConfig struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
}

// NewAnalyzer returns the analyzer named by cfg.Provider, or nil when no
// provider is configured. The returned close function is never nil.
func NewAnalyzer(ctx context.Context, cfg ProviderConfig) (Analyzer, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Provider {
	case "":
		return nil, noop, nil
	case "gemini":
		g, err := NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, err
		}
		return g, g.Close, nil
	case "openai":
		o, err := NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, noop, err
		}
		return o, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
