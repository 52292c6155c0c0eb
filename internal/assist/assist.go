package assist

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sokinpui/hatch/internal/parser"
	"github.com/sokinpui/hatch/model"
)

const (
	DefaultModel = "deepseek-ai/DeepSeek-V3"
	BaseURL      = "https://api.together.xyz/v1"

	systemPrompt = "You are a helpful coding assistant. Provide clear, well-commented code examples and explanations. Format your response with proper code blocks and explanations."
	noResponse   = "No response generated."
	maxTokens    = 2000
	temperature  = 0.1
)

// ErrNoAPIKey is returned when no Together AI key is configured.
var ErrNoAPIKey = errors.New("a Together AI API key is required")

// Assistant answers free-form coding questions with markdown replies.
type Assistant struct {
	client *openai.Client
	model  string
}

// New returns an assistant using apiKey. An empty baseURL or model selects
// the defaults.
func New(apiKey, baseURL, model string) (*Assistant, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = BaseURL
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Assistant{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Ask returns the raw reply to prompt.
func (a *Assistant) Ask(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return noResponse, nil
	}
	return resp.Choices[0].Message.Content, nil
}

// AskSegments returns the reply to prompt split into prose and code.
func (a *Assistant) AskSegments(ctx context.Context, prompt string) ([]model.Segment, error) {
	raw, err := a.Ask(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parser.Segments(raw), nil
}
