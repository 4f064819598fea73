package llm

import (
	"context"
	"fmt"

	"github.com/smarthome-ai/diagnostic-core/internal/common/config"
)

// NewFromConfig selects and constructs a Client for the configured
// provider.
func NewFromConfig(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "gemini":
		return NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
