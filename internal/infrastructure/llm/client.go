package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"MoleculeRadar/internal/config"
	"MoleculeRadar/internal/ports"
)

const maxTokens = 1024

// Client implements ports.ChatClient backed by OpenAI-compatible APIs.
type Client struct {
	api   *openai.Client
	model string
}

var _ ports.ChatClient = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		api:   openai.NewClient(cfg.APIKey),
		model: cfg.Model,
	}
}

// Complete sends a system+user prompt pair and returns the completion text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c == nil || c.api == nil {
		return "", fmt.Errorf("llm client is not configured")
	}

	model := c.model
	if model == "" {
		model = openai.GPT4oMini
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
