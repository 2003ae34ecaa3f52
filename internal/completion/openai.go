package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/tutormatematica/tutorchat/internal/model"
)

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client       *openai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
}

// NewOpenAI creates an OpenAI completer. BaseURL and HTTPClient are optional.
func NewOpenAI(opts Options) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	return &OpenAI{
		client:       openai.NewClientWithConfig(cfg),
		model:        opts.Model,
		systemPrompt: opts.SystemPrompt,
		timeout:      opts.Timeout,
	}
}

// Complete implements Completer.
func (c *OpenAI) Complete(ctx context.Context, turns []model.ChatTurn) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: c.messages(turns),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai: status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("openai: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAI) messages(turns []model.ChatTurn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if c.systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}
	for _, t := range turns {
		role := openai.ChatMessageRoleUser
		if t.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return msgs
}
