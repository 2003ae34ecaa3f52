package apperror

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Body is the detail object of an error response.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response is the JSON envelope for every error. Message repeats the
// detail message at the top level, where the front end reads it.
type Response struct {
	Message string       `json:"message"`
	Error   Body         `json:"error"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// ToResponse converts err to its client-safe envelope and status code.
func ToResponse(err error) (int, Response) {
	appErr, ok := As(err)
	if !ok {
		appErr = NewInternal(err)
	}

	return appErr.Code, Response{
		Message: appErr.Message,
		Error: Body{
			Code:    strings.ToUpper(appErr.Type),
			Message: appErr.Message,
		},
		Errors: appErr.Fields,
	}
}

// Write renders err as a JSON error response. Non-AppErrors become a
// generic 500.
func Write(w http.ResponseWriter, err error) {
	status, body := ToResponse(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
