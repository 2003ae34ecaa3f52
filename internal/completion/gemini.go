package completion

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/tutormatematica/tutorchat/internal/model"
)

// Gemini calls the Gemini generateContent API.
type Gemini struct {
	client       *genai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
}

// NewGemini creates a Gemini completer.
func NewGemini(ctx context.Context, opts Options) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &Gemini{
		client:       client,
		model:        opts.Model,
		systemPrompt: opts.SystemPrompt,
		timeout:      opts.Timeout,
	}, nil
}

// Complete implements Completer.
func (c *Gemini) Complete(ctx context.Context, turns []model.ChatTurn) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	var config *genai.GenerateContentConfig
	if c.systemPrompt != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: c.systemPrompt}},
			},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, toGenaiContents(turns), config)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// toGenaiContents maps the log onto Gemini roles: assistant turns become
// "model" turns.
func toGenaiContents(turns []model.ChatTurn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.RoleUser
		if t.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Content}},
		})
	}
	return contents
}
