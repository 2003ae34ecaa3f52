// Package middleware provides HTTP middleware for the tutorchat API.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tutormatematica/tutorchat/internal/apperror"
)

// MsgInvalidBody is returned when the request body is not a JSON object.
const MsgInvalidBody = "Invalid request body"

// Normalizer is implemented by request bodies that sanitize their fields
// before validation.
type Normalizer interface {
	Normalize()
}

// FieldMessenger is implemented by request bodies that map a failed rule to
// the message shown to the client. field is the JSON name.
type FieldMessenger interface {
	FieldMessage(field, tag string) string
}

type bodyContextKey struct{}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateBody returns a middleware that decodes the JSON body into a T,
// normalizes and validates it, and stores it in the request context.
// Only the first failing field is reported, as a 422.
func ValidateBody[T any](v *validator.Validate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := new(T)

			if err := decodeBody(r, body); err != nil {
				apperror.Write(w, apperror.NewValidation(MsgInvalidBody,
					apperror.FieldError{Field: "body", Message: MsgInvalidBody}))
				return
			}

			if n, ok := any(body).(Normalizer); ok {
				n.Normalize()
			}

			if err := v.Struct(body); err != nil {
				apperror.Write(w, validationError(body, err))
				return
			}

			ctx := context.WithValue(r.Context(), bodyContextKey{}, body)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BodyFromContext returns the body stored by ValidateBody.
func BodyFromContext[T any](ctx context.Context) (*T, bool) {
	body, ok := ctx.Value(bodyContextKey{}).(*T)
	return body, ok
}

// decodeBody reads a JSON object into dst. An empty body decodes as {}.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func validationError(body any, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.NewInternal(err)
	}

	first := verrs[0]
	field := first.Field()
	message := field + " is invalid"
	if m, ok := body.(FieldMessenger); ok {
		if msg := m.FieldMessage(field, first.Tag()); msg != "" {
			message = msg
		}
	}

	return apperror.NewValidation(message, apperror.FieldError{Field: field, Message: message})
}
