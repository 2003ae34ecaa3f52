package dto

import (
	"time"

	"github.com/tutormatematica/tutorchat/internal/model"
)

// NewChatRequest represents the request body for a new chat message.
type NewChatRequest struct {
	Message string `json:"message" validate:"required"`
}

// FieldMessage returns the client message for a failed field.
func (r *NewChatRequest) FieldMessage(field, tag string) string {
	if field == "message" {
		return "Message is required"
	}
	return ""
}

// ChatResponse represents one conversation turn.
type ChatResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ToChatResponses converts turns preserving order. Never returns nil.
func ToChatResponses(turns []model.ChatTurn) []ChatResponse {
	out := make([]ChatResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, ChatResponse{
			ID:        t.ID,
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}

// GenerateResponse is returned by a new chat message.
type GenerateResponse struct {
	Chats []ChatResponse `json:"chats"`
}

// HistoryResponse is returned by the history listing.
type HistoryResponse struct {
	Message string         `json:"message"`
	Chats   []ChatResponse `json:"chats"`
}

// MessageResponse carries only a status message.
type MessageResponse struct {
	Message string `json:"message"`
}
