// Package repository provides the user store and its backends.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tutormatematica/tutorchat/internal/model"
)

// Common errors for user store operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
	ErrInvalidRole  = errors.New("invalid chat role")
)

// UserStore persists users and their conversation logs.
type UserStore interface {
	// Create inserts u and assigns u.ID. Returns ErrEmailExists on a
	// duplicate email.
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	// Save writes the profile fields of u (name, email, password hash).
	// The chat log is changed only by AppendChats and Clear.
	Save(ctx context.Context, u *model.User) error
	// AppendChats atomically appends turns to the user's log and returns
	// the resulting log.
	AppendChats(ctx context.Context, id string, turns ...model.ChatTurn) ([]model.ChatTurn, error)
	// Clear empties the user's log.
	Clear(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options configures Open.
type Options struct {
	// Kind is one of config.StoreMongo, config.StorePostgres or config.StoreMemory.
	Kind         string
	URL          string
	DatabaseName string
}

// Open connects to the store selected by opts.Kind.
func Open(ctx context.Context, opts Options) (UserStore, error) {
	switch opts.Kind {
	case "mongo":
		return NewMongoStore(ctx, opts.URL, opts.DatabaseName)
	case "postgres":
		return NewPostgresStore(ctx, opts.URL)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", opts.Kind)
	}
}

// NormalizeEmail lower-cases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkTurns rejects turns whose role the conversation log does not accept.
func checkTurns(turns []model.ChatTurn) error {
	for _, t := range turns {
		if !model.IsValidRole(t.Role) {
			return fmt.Errorf("%w: %q", ErrInvalidRole, t.Role)
		}
	}
	return nil
}

func copyTurns(turns []model.ChatTurn) []model.ChatTurn {
	out := make([]model.ChatTurn, len(turns))
	copy(out, turns)
	return out
}
