// Package llm holds answer generators used by the request layer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"docrag/internal/domain"
)

// DefaultSystemPrompt is sent when no system prompt is configured.
const DefaultSystemPrompt = "You are a helpful AI study assistant."

// Config configures the OpenAI chat generator.
type Config struct {
	BaseURL      string
	APIKeyEnv    string
	Model        string
	MaxTokens    int
	Temperature  float32
	SystemPrompt string
	Timeout      time.Duration
}

// ChatGenerator answers prompts with an OpenAI-compatible chat completion.
type ChatGenerator struct {
	api          *goopenai.Client
	model        string
	maxTokens    int
	temperature  float32
	systemPrompt string
}

// NewChatGenerator reads the API key from cfg.APIKeyEnv.
func NewChatGenerator(cfg Config) (*ChatGenerator, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	return newChatGenerator(key, cfg), nil
}

func newChatGenerator(key string, cfg Config) *ChatGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 700
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	oc := goopenai.DefaultConfig(key)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &ChatGenerator{
		api:          goopenai.NewClientWithConfig(oc),
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		systemPrompt: cfg.SystemPrompt,
	}
}

// Generate implements domain.AnswerGenerator. Failures are returned as
// *domain.ProviderError, never folded into the answer text.
func (g *ChatGenerator) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	system := p.System
	if system == "" {
		system = g.systemPrompt
	}
	resp, err := g.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: p.User},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ProviderError{Op: "openai chat", Err: errors.New("no choices returned")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classify(err error) error {
	pe := &domain.ProviderError{Op: "openai chat", Err: err}
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		pe.Transient = true
	case errors.As(err, &apiErr):
		pe.Transient = retryableStatus(apiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		pe.Transient = reqErr.HTTPStatusCode == 0 || retryableStatus(reqErr.HTTPStatusCode)
	}
	return pe
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
