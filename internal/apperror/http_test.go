package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWrite_Envelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Write(rec, NewValidation("Email is required", FieldError{Field: "email", Message: "Email is required"}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Email is required" || resp.Error.Message != "Email is required" {
		t.Errorf("messages = %q / %q", resp.Message, resp.Error.Message)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", resp.Error.Code)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Field != "email" {
		t.Errorf("errors = %+v", resp.Errors)
	}
}

func TestWrite_PlainErrorIsInternal(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Write(rec, errors.New("dial tcp 10.0.0.1:27017: refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["message"] != "Internal server error" {
		t.Errorf("message = %v", raw["message"])
	}
	if _, ok := raw["errors"]; ok {
		t.Error("errors should be omitted when there are no field errors")
	}
}
