// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/tutormatematica/tutorchat/internal/auth"
)

// Store kinds selected by the DATABASE_URL scheme.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Models used when COMPLETION_MODEL is unset.
var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderGemini: "gemini-2.0-flash",
}

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"4000"`

	// User store (mongodb://, postgres:// or memory://)
	DatabaseURL  string `env:"DATABASE_URL,required,notEmpty"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"tutorchat"`

	// Cache (Redis). Optional: rate limiting and the chat lock fall back to
	// in-process behaviour when unset.
	RedisURL string `env:"REDIS_URL"`

	// Session
	JWTSecret    string        `env:"JWT_SECRET,required,notEmpty"`
	CookieSecret string        `env:"COOKIE_SECRET,required,notEmpty"`
	CookieName   string        `env:"COOKIE_NAME" envDefault:"auth_token"`
	CookieDomain string        `env:"COOKIE_DOMAIN"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// Password hashing for new accounts (argon2id or bcrypt)
	PasswordHasher string `env:"PASSWORD_HASHER" envDefault:"argon2id"`

	// Completion API
	CompletionProvider string        `env:"COMPLETION_PROVIDER" envDefault:"openai"`
	CompletionModel    string        `env:"COMPLETION_MODEL"`
	CompletionTimeout  time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"60s"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAISecret       string        `env:"OPEN_AI_SECRET"`
	OpenAIBaseURL      string        `env:"OPENAI_BASE_URL"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	SystemPrompt       string        `env:"SYSTEM_PROMPT"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. WriteTimeout has to outlast a completion call.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting for signup and login, per client IP
	RateLimitAuthEnabled   bool `env:"RATE_LIMIT_AUTH_ENABLED" envDefault:"true"`
	RateLimitAuthPerMinute int  `env:"RATE_LIMIT_AUTH_PER_MINUTE" envDefault:"10"`
	RateLimitAuthBurst     int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`
	FrontendURL        string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Built front end served in production
	StaticDir string `env:"STATIC_DIR"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
// Falls back to FrontendURL when no explicit list is configured.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		if c.FrontendURL == "" {
			return nil
		}
		return []string{c.FrontendURL}
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// StoreKind reports which user store DatabaseURL points at.
func (c *Config) StoreKind() (string, error) {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		return StoreMongo, nil
	case "postgres", "postgresql":
		return StorePostgres, nil
	case "memory":
		return StoreMemory, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
}

// CompletionAPIKey returns the API key for the selected provider.
// OPEN_AI_SECRET is accepted as an alias for OPENAI_API_KEY.
func (c *Config) CompletionAPIKey() string {
	switch c.CompletionProvider {
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		if c.OpenAIAPIKey != "" {
			return c.OpenAIAPIKey
		}
		return c.OpenAISecret
	}
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	kind, err := c.StoreKind()
	if err != nil {
		return err
	}

	switch c.CompletionProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported COMPLETION_PROVIDER %q", c.CompletionProvider)
	}

	if c.CompletionModel == "" {
		return errors.New("COMPLETION_MODEL must not be empty")
	}

	if c.CompletionAPIKey() == "" && kind != StoreMemory {
		return fmt.Errorf("missing API key for completion provider %q", c.CompletionProvider)
	}

	switch c.PasswordHasher {
	case "argon2id", "bcrypt":
	default:
		return fmt.Errorf("unsupported PASSWORD_HASHER %q", c.PasswordHasher)
	}

	if len(c.JWTSecret) < auth.MinSecretBytes {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", auth.MinSecretBytes)
	}

	if len(c.CookieSecret) < auth.MinSecretBytes {
		return fmt.Errorf("COOKIE_SECRET must be at least %d bytes", auth.MinSecretBytes)
	}

	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.CompletionModel == "" {
		cfg.CompletionModel = defaultModels[cfg.CompletionProvider]
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
