package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/codeatpanorama/vision-flow/internal/config"

	"github.com/sashabaranov/go-openai"
)

// OpenAIService completes prompts with the OpenAI chat completions API
type OpenAIService struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIService creates a new OpenAI service
func NewOpenAIService(cfg config.OpenAIConfig) *OpenAIService {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}

	return &OpenAIService{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Complete sends one system + user exchange and returns the reply text
func (s *OpenAIService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		// A literal zero is dropped from the request body, which would fall back to the API default of 1
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   s.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
