package services

import (
	"context"
	"fmt"

	"github.com/codeatpanorama/vision-flow/internal/config"
)

// NewLanguageModel builds the backend selected by LLM_PROVIDER
func NewLanguageModel(ctx context.Context, cfg *config.Config) (LanguageModel, error) {
	switch cfg.LLM.Provider {
	case "openai", "":
		return NewOpenAIService(cfg.OpenAI), nil
	case "gemini":
		return NewGeminiService(ctx, cfg.Gemini)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLM.Provider)
	}
}
