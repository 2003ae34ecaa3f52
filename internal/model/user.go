// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User is an account together with its conversation log.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize
	Chats        []ChatTurn `json:"chats"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ChatTurn is one entry of a conversation. Slice order is conversation order.
type ChatTurn struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChatTurn creates a turn with a fresh ULID.
func NewChatTurn(role, content string) ChatTurn {
	now := time.Now().UTC()
	return ChatTurn{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
}

// IsValidRole reports whether role is one the conversation log accepts.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}

// Identity is the decoded content of a session token.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}
