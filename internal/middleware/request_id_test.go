package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantReuse bool
	}{
		{name: "generated when absent", header: "", wantReuse: false},
		{name: "reused when well formed", header: "req-123_abc.def", wantReuse: true},
		{name: "replaced when it has spaces", header: "bad id\ninjected", wantReuse: false},
		{name: "replaced when too long", header: strings.Repeat("a", 65), wantReuse: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Header().Get(RequestIDHeader) != seen {
				t.Errorf("response header %q != context id %q", rec.Header().Get(RequestIDHeader), seen)
			}
			if tt.wantReuse {
				if seen != tt.header {
					t.Errorf("request id = %q, want %q", seen, tt.header)
				}
				return
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Errorf("request id %q is not a UUID: %v", seen, err)
			}
		})
	}
}
