package main

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"mongodb://tutor:s3cret@db:27017/tutorchat", "mongodb://tutor@db:27017/tutorchat"},
		{"redis://:s3cret@cache:6379/0", "redis://redacted@cache:6379/0"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://tutor:s3cret@db:5432/tutorchat"
	err := errors.New("connect " + dsn + " failed: password=s3cret rejected")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "s3cret") {
		t.Errorf("sanitizeError leaked secret: %q", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("sanitizeError(nil) should be empty")
	}
}
