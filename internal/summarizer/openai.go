package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You summarize Telegram channel posts. " +
	"Write a concise summary of the main points in the language of the posts. " +
	"Reply with the summary only."

// OpenAIConfig configures an OpenAISummarizer. BaseURL may point at any
// OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	MinWords  int
}

// OpenAISummarizer asks a chat-completion model for the summary.
type OpenAISummarizer struct {
	client    *openai.Client
	model     string
	maxTokens int
	minWords  int
}

func NewOpenAI(cfg OpenAIConfig) *OpenAISummarizer {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	return &OpenAISummarizer{
		client:    openai.NewClientWithConfig(cc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		minWords:  cfg.MinWords,
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if tooShort(text, s.minWords) {
		return text, nil
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai completion: empty response")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("openai completion: empty summary")
	}
	return out, nil
}
