package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

var (
	// ErrCookieMissing means the request carries no session cookie.
	ErrCookieMissing = errors.New("session cookie missing")
	// ErrCookieInvalid means the cookie signature or timestamp did not verify.
	ErrCookieInvalid = errors.New("session cookie invalid")
)

// CookieConfig configures the session cookie.
type CookieConfig struct {
	Name   string
	Domain string
	Secret string
	TTL    time.Duration
	// Secure marks the cookie Secure and SameSite=None for cross-site
	// front ends served over HTTPS. Otherwise SameSite=Lax is used.
	Secure bool
}

// SessionCookie writes and reads the HMAC-signed session cookie that
// carries the session token.
type SessionCookie struct {
	cfg   CookieConfig
	codec *securecookie.SecureCookie
}

// NewSessionCookie creates a SessionCookie from cfg.
func NewSessionCookie(cfg CookieConfig) *SessionCookie {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}

	codec := securecookie.New([]byte(cfg.Secret), nil)
	codec.MaxAge(int(cfg.TTL.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &SessionCookie{cfg: cfg, codec: codec}
}

// Name returns the cookie name.
func (c *SessionCookie) Name() string {
	return c.cfg.Name
}

// Set signs token and writes it as an HTTP-only cookie on path "/".
func (c *SessionCookie) Set(w http.ResponseWriter, token string) error {
	encoded, err := c.codec.Encode(c.cfg.Name, token)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}

	cookie := c.base()
	cookie.Value = encoded
	cookie.Expires = time.Now().Add(c.cfg.TTL)
	cookie.MaxAge = int(c.cfg.TTL.Seconds())

	http.SetCookie(w, cookie)
	return nil
}

// Clear writes an expired cookie with the same attributes.
func (c *SessionCookie) Clear(w http.ResponseWriter) {
	cookie := c.base()
	cookie.Expires = time.Unix(0, 0)
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

// Read returns the token stored in the request's session cookie.
func (c *SessionCookie) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.cfg.Name)
	if err != nil || cookie.Value == "" {
		return "", ErrCookieMissing
	}

	var token string
	if err := c.codec.Decode(c.cfg.Name, cookie.Value, &token); err != nil {
		return "", ErrCookieInvalid
	}
	if token == "" {
		return "", ErrCookieMissing
	}
	return token, nil
}

func (c *SessionCookie) base() *http.Cookie {
	cookie := &http.Cookie{
		Name:     c.cfg.Name,
		Path:     "/",
		Domain:   c.cfg.Domain,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if c.cfg.Secure {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
