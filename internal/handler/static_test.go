package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func TestStaticHandler(t *testing.T) {
	root := fstest.MapFS{
		"index.html":    {Data: []byte("<html>tutor</html>")},
		"assets/app.js": {Data: []byte("console.log('app')")},
	}
	h := newStaticHandler(root)

	tests := []struct {
		name     string
		path     string
		wantBody string
	}{
		{name: "root serves index", path: "/", wantBody: "<html>tutor</html>"},
		{name: "asset served", path: "/assets/app.js", wantBody: "console.log('app')"},
		{name: "client route falls back to index", path: "/chat", wantBody: "<html>tutor</html>"},
		{name: "directory falls back to index", path: "/assets", wantBody: "<html>tutor</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
