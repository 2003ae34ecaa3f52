package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutormatematica/tutorchat/internal/apperror"
	"github.com/tutormatematica/tutorchat/internal/cache"
	"github.com/tutormatematica/tutorchat/internal/metrics"
	"github.com/tutormatematica/tutorchat/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingLimiter struct{}

func (failingLimiter) CheckAuthRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*cache.RateLimitResult, error) {
	return nil, errors.New("redis down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitAuth_DeniesAfterBurst(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)
	recorder := metrics.NewInMemory()

	handler := RateLimitAuth(RateLimitConfig{
		Logger:        discardLogger(),
		Limiter:       cache.NewWithClient(client),
		Metrics:       recorder,
		Enabled:       true,
		RatePerMinute: 1,
		Burst:         2,
	})(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/user/login", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		rec := send()
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := send()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var resp apperror.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "RATE_LIMITED", resp.Error.Code)
	assert.Equal(t, uint64(1), recorder.Snapshot().RateLimited)
}

func TestRateLimitAuth_FailsOpen(t *testing.T) {
	handler := RateLimitAuth(RateLimitConfig{
		Logger:        discardLogger(),
		Limiter:       failingLimiter{},
		Enabled:       true,
		RatePerMinute: 1,
		Burst:         1,
	})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/user/signup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitAuth_Disabled(t *testing.T) {
	handler := RateLimitAuth(RateLimitConfig{Limiter: failingLimiter{}})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{name: "X-Forwarded-For single", xff: "1.2.3.4", remoteAddr: "127.0.0.1:8080", want: "1.2.3.4"},
		{name: "X-Forwarded-For multiple", xff: "1.2.3.4, 5.6.7.8", remoteAddr: "127.0.0.1:8080", want: "1.2.3.4"},
		{name: "X-Real-IP", xri: "1.2.3.4", remoteAddr: "127.0.0.1:8080", want: "1.2.3.4"},
		{name: "fallback to RemoteAddr", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1:12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
