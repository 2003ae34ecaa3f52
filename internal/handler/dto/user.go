// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"strings"
	"time"

	"github.com/tutormatematica/tutorchat/internal/model"
)

// StatusOK is the message of every successful response envelope.
const StatusOK = "OK"

// SignupRequest represents the request body for creating an account.
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=8,max=72"`
}

// Normalize trims every field before validation.
func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

// FieldMessage returns the client message for a failed field.
func (r *SignupRequest) FieldMessage(field, tag string) string {
	switch field {
	case "name":
		return "Name is required"
	case "email":
		return "Email is required"
	case "password":
		if tag == "max" {
			return "Password must be at most 72 characters long"
		}
		return "Password must be at least 8 characters long"
	}
	return ""
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Normalize trims the credentials before validation.
func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

// FieldMessage returns the client message for a failed field.
func (r *LoginRequest) FieldMessage(field, tag string) string {
	switch field {
	case "email":
		return "Email is required"
	case "password":
		return "Password is required"
	}
	return ""
}

// SessionResponse is returned by signup, login, logout and auth-status.
type SessionResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// ToSessionResponse converts a user to its session envelope.
func ToSessionResponse(u *model.User) SessionResponse {
	return SessionResponse{
		Message: StatusOK,
		Name:    u.Name,
		Email:   u.Email,
	}
}

// UserResponse represents an account in API responses. It never carries
// the password hash.
type UserResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Chats     []ChatResponse `json:"chats"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// UserListResponse is returned by the user listing.
type UserListResponse struct {
	Message string         `json:"message"`
	Users   []UserResponse `json:"users"`
}

// ToUserListResponse converts users to the listing envelope.
func ToUserListResponse(users []*model.User) UserListResponse {
	data := make([]UserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, UserResponse{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Chats:     ToChatResponses(u.Chats),
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		})
	}
	return UserListResponse{Message: StatusOK, Users: data}
}
