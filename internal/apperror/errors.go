// Package apperror provides domain-specific error types for the API.
// These errors carry an HTTP status code and a user-safe message. The
// handler package maps them to JSON responses.
//
// NEVER return raw database or completion API errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types. These are also the machine-readable codes sent to clients.
const (
	TypeValidation         = "validation_error"
	TypeUnauthenticated    = "unauthenticated"
	TypeTokenExpired       = "token_expired"
	TypeTokenInvalid       = "token_invalid"
	TypePermissionMismatch = "permission_mismatch"
	TypeConflict           = "conflict"
	TypeInvalidCredentials = "invalid_credentials"
	TypeRateLimited        = "rate_limited"
	TypePayloadTooLarge    = "payload_too_large"
	TypeInternal           = "internal_error"
)

// FieldError describes one failed input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 401, 422, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "conflict").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Fields lists per-field validation failures.
	Fields []FieldError `json:"fields,omitempty"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors ---

// NewValidation creates a 422 Unprocessable Entity error for malformed input.
func NewValidation(message string, fields ...FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeValidation,
		Message: message,
		Fields:  fields,
	}
}

// NewUnauthenticated creates a 401 for a missing, invalid or expired
// session, or a session whose user no longer exists.
func NewUnauthenticated(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeUnauthenticated,
		Message: message,
	}
}

// NewTokenExpired creates a 401 for a session token past its expiry.
func NewTokenExpired(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeTokenExpired,
		Message: message,
	}
}

// NewTokenInvalid creates a 401 for a session cookie or token that failed
// verification.
func NewTokenInvalid(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeTokenInvalid,
		Message: message,
	}
}

// NewPermissionMismatch creates a 401 for a token whose subject does not
// match the record it resolved to.
func NewPermissionMismatch(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypePermissionMismatch,
		Message: message,
	}
}

// NewConflict creates a duplicate-resource error. This API reports
// conflicts as 401, matching the existing front end.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeConflict,
		Message: message,
	}
}

// NewInvalidCredentials creates a 401 login failure. Callers pass the same
// message for unknown accounts and wrong passwords.
func NewInvalidCredentials(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeInvalidCredentials,
		Message: message,
	}
}

// NewRateLimited creates a 429 Too Many Requests error.
func NewRateLimited(message string) *AppError {
	return &AppError{
		Code:    http.StatusTooManyRequests,
		Type:    TypeRateLimited,
		Message: message,
	}
}

// NewPayloadTooLarge creates a 413 for a request body over the size limit.
func NewPayloadTooLarge(message string) *AppError {
	return &AppError{
		Code:    http.StatusRequestEntityTooLarge,
		Type:    TypePayloadTooLarge,
		Message: message,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     TypeInternal,
		Message:  "Internal server error",
		Internal: err,
	}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, typ string) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == typ
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message.
func SafeMessage(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return "Internal server error"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
