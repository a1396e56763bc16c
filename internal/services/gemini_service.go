package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeatpanorama/vision-flow/internal/config"

	"google.golang.org/genai"
)

// GeminiService completes prompts with the Gemini API
type GeminiService struct {
	client *genai.Client
	model  string
}

// NewGeminiService creates a new Gemini service
func NewGeminiService(ctx context.Context, cfg config.GeminiConfig) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiService{client: client, model: model}, nil
}

// Complete sends one system + user exchange and returns the reply text
func (s *GeminiService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	res, err := s.client.Models.GenerateContent(ctx, s.model,
		[]*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", fmt.Errorf("no response from Gemini")
	}
	return text, nil
}
