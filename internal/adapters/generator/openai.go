package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "career-advisor-bot/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config задаёт параметры генерации ответа.
type Config struct {
	Model       string
	Preamble    string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAI реализует domain.Generator через OpenAI Chat Completions.
type OpenAI struct {
	client chatClient
	cfg    Config
}

// NewOpenAI создаёт генератора ответов.
func NewOpenAI(client chatClient, cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 750
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAI{client: client, cfg: cfg}
}

// Generate строит ответ на сообщение пользователя.
func (g *OpenAI) Generate(ctx context.Context, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("generate: empty message")
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	messages := make([]openai.ChatMessage, 0, 2)
	if g.cfg.Preamble != "" {
		messages = append(messages, openai.ChatMessage{Role: openai.RoleSystem, Content: g.cfg.Preamble})
	}
	messages = append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: trimmed})

	req := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
		Messages:    messages,
	}
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: пустой ответ")
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("openai completion: пустой ответ")
	}
	return reply, nil
}
