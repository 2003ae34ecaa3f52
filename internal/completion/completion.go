// Package completion sends a conversation to a chat-completion API and
// returns the assistant's reply.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tutormatematica/tutorchat/internal/model"
)

// Providers accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderEcho   = "echo"
)

// ErrEmptyCompletion is returned when the provider answers without text.
var ErrEmptyCompletion = errors.New("completion returned no content")

// Completer produces the next assistant message for an ordered conversation.
type Completer interface {
	Complete(ctx context.Context, turns []model.ChatTurn) (string, error)
}

// Options configures New.
type Options struct {
	Provider     string
	Model        string
	APIKey       string
	BaseURL      string
	SystemPrompt string
	// Timeout bounds a single Complete call. Zero means no extra bound.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New builds the Completer for opts.Provider.
func New(ctx context.Context, opts Options) (Completer, error) {
	switch opts.Provider {
	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, errors.New("openai: missing API key")
		}
		return NewOpenAI(opts), nil
	case ProviderGemini:
		if opts.APIKey == "" {
			return nil, errors.New("gemini: missing API key")
		}
		return NewGemini(ctx, opts)
	case ProviderEcho:
		return Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", opts.Provider)
	}
}

// Echo repeats the last user message. It stands in for a real provider in
// local development when no API key is configured.
type Echo struct{}

// Complete implements Completer.
func (Echo) Complete(ctx context.Context, turns []model.ChatTurn) (string, error) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == model.RoleUser {
			return "You said: " + turns[i].Content, nil
		}
	}
	return "", ErrEmptyCompletion
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
