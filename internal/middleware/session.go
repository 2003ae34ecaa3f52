package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tutormatematica/tutorchat/internal/apperror"
	"github.com/tutormatematica/tutorchat/internal/auth"
	"github.com/tutormatematica/tutorchat/internal/metrics"
)

// Session rejection messages shown to the client.
const (
	MsgTokenMissing = "Token not received"
	MsgTokenExpired = "Token expired"
)

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger  *slog.Logger
	Cookie  *auth.SessionCookie
	Tokens  *auth.TokenService
	Metrics metrics.Recorder
}

// Session returns a middleware that authenticates requests by the signed
// session cookie. On success the token's identity is placed in the request
// context. A cookie that fails verification is cleared.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cfg.Cookie.Read(r)
			if errors.Is(err, auth.ErrCookieMissing) {
				rejectSession(cfg, w, r, "missing_token", apperror.NewUnauthenticated(MsgTokenMissing))
				return
			}
			if err != nil {
				cfg.Cookie.Clear(w)
				rejectSession(cfg, w, r, "invalid_cookie", apperror.NewTokenInvalid(MsgTokenExpired))
				return
			}

			identity, err := cfg.Tokens.Verify(token)
			if err != nil {
				cfg.Cookie.Clear(w)
				if errors.Is(err, auth.ErrTokenExpired) {
					rejectSession(cfg, w, r, "expired_token", apperror.NewTokenExpired(MsgTokenExpired))
					return
				}
				rejectSession(cfg, w, r, "invalid_token", apperror.NewTokenInvalid(MsgTokenExpired))
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectSession(cfg SessionConfig, w http.ResponseWriter, r *http.Request, reason string, err error) {
	cfg.Metrics.IncSessionRejected()
	cfg.Logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", getClientIP(r)),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	apperror.Write(w, err)
}
