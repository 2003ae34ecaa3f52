package middleware

import (
	"net/http"
	"strings"

	"github.com/tutormatematica/tutorchat/internal/apperror"
)

// SecurityConfig holds configuration for security headers.
type SecurityConfig struct {
	// IsProduction enables HSTS and restricts Cross-Origin-Resource-Policy
	// to same-site.
	IsProduction bool
	// ConnectSources are extra origins the front end may fetch from.
	ConnectSources []string
	// MaxRequestBodySize is the max allowed request body in bytes.
	// Default: 1MB (1048576 bytes).
	MaxRequestBodySize int64
}

// DefaultSecurityConfig returns sensible defaults for production.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		IsProduction: true,
		ConnectSources: []string{
			"https://tutormatematica.me",
			"https://www.tutormatematica.me",
		},
		MaxRequestBodySize: 1 << 20, // 1MB
	}
}

// ContentSecurityPolicy builds the policy for the API and the served SPA.
func ContentSecurityPolicy(connectSources []string) string {
	connect := append([]string{"'self'"}, connectSources...)
	directives := []string{
		"default-src 'self'",
		"connect-src " + strings.Join(connect, " "),
		"script-src 'self' 'unsafe-inline'",
		"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com",
		"font-src 'self' https://fonts.gstatic.com",
		"img-src 'self' data: https:",
		"frame-ancestors 'none'",
	}
	return strings.Join(directives, "; ")
}

// Security returns a middleware that applies security headers to all responses.
// This middleware should be applied early in the chain.
//
// Headers applied:
//   - Strict-Transport-Security (HSTS) - only in production
//   - X-Content-Type-Options: nosniff
//   - X-Frame-Options: DENY
//   - X-XSS-Protection: 0
//   - Referrer-Policy: strict-origin-when-cross-origin
//   - Content-Security-Policy: policy for the SPA and its API
//   - Cross-Origin-Resource-Policy: same-site in production
//   - Cache-Control: no-store for /api responses
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	csp := ContentSecurityPolicy(cfg.ConnectSources)
	corp := "cross-origin"
	if cfg.IsProduction {
		corp = "same-site"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			// Legacy XSS filter off; the CSP covers it.
			h.Set("X-XSS-Protection", "0")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", csp)
			h.Set("Cross-Origin-Resource-Policy", corp)
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=()")

			// max-age=31536000 = 1 year
			if cfg.IsProduction {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			if strings.HasPrefix(r.URL.Path, "/api/") {
				h.Set("Cache-Control", "no-store")
			}

			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize returns a middleware that limits request body size.
//
// When the limit is exceeded, the connection is closed and subsequent
// reads return an error.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > maxBytes {
				apperror.Write(w, apperror.NewPayloadTooLarge("Request body too large"))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}
