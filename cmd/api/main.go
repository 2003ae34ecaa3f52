// Package main is the entrypoint for the tutorchat API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/tutormatematica/tutorchat/internal/auth"
	"github.com/tutormatematica/tutorchat/internal/cache"
	"github.com/tutormatematica/tutorchat/internal/completion"
	"github.com/tutormatematica/tutorchat/internal/config"
	"github.com/tutormatematica/tutorchat/internal/handler"
	"github.com/tutormatematica/tutorchat/internal/metrics"
	"github.com/tutormatematica/tutorchat/internal/middleware"
	"github.com/tutormatematica/tutorchat/internal/repository"
	"github.com/tutormatematica/tutorchat/internal/server"
	"github.com/tutormatematica/tutorchat/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Validate already checked the scheme.
	storeKind, _ := cfg.StoreKind()
	store, err := repository.Open(ctx, repository.Options{
		Kind:         storeKind,
		URL:          cfg.DatabaseURL,
		DatabaseName: cfg.DatabaseName,
	})
	if err != nil {
		logger.Error(
			"failed to connect to user store",
			slog.String("store", storeKind),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to user store", "store", storeKind)

	// Redis is optional. Without it the chat lock is in-process and the
	// auth rate limit is off.
	var (
		cacheClient *cache.Cache
		locker      cache.Locker = cache.NewLocalLocker()
		limiter     middleware.AuthRateLimiter
		cacheHealth handler.HealthChecker
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		logger.Info("connected to Redis")
		locker = cacheClient.NewLocker(cfg.CompletionTimeout + chatLockMargin)
		limiter = cacheClient
		cacheHealth = cacheClient
	} else {
		logger.Warn("REDIS_URL not set; using in-process chat lock and no auth rate limit")
	}

	completer, err := newCompleter(ctx, cfg, storeKind, logger)
	if err != nil {
		logger.Error("failed to initialize completion client", "error", err)
		os.Exit(1)
	}

	recorder := metrics.NewInMemory()
	tokens := auth.NewTokenService(cfg.JWTSecret)
	cookie := auth.NewSessionCookie(auth.CookieConfig{
		Name:   cfg.CookieName,
		Domain: cfg.CookieDomain,
		Secret: cfg.CookieSecret,
		TTL:    cfg.SessionTTL,
		Secure: cfg.IsProduction(),
	})

	authService := service.NewAuthService(
		store,
		auth.NewPasswordHasher(cfg.PasswordHasher),
		tokens,
		cfg.SessionTTL,
		recorder,
		logger,
	)
	chatService := service.NewChatService(store, completer, locker, recorder, logger)

	r := setupRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		tokens:   tokens,
		cookie:   cookie,
		limiter:  limiter,
		users:    handler.NewUserHandler(authService, cookie, logger),
		chats:    handler.NewChatHandler(chatService, logger),
		health:   handler.NewHealthHandler(store, cacheHealth),
		metrics:  handler.NewMetricsHandler(recorder),
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("user store", store.Close)
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", storeKind,
		"completion_provider", cfg.CompletionProvider,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newCompleter builds the completion client. With the in-memory store and
// no API key it falls back to the echo completer for local development.
func newCompleter(ctx context.Context, cfg *config.Config, storeKind string, logger *slog.Logger) (completion.Completer, error) {
	provider := cfg.CompletionProvider
	apiKey := cfg.CompletionAPIKey()
	if apiKey == "" && storeKind == config.StoreMemory {
		logger.Warn("no completion API key; replies will echo the last message",
			"provider", provider,
		)
		provider = completion.ProviderEcho
	}

	return completion.New(ctx, completion.Options{
		Provider:     provider,
		Model:        cfg.CompletionModel,
		APIKey:       apiKey,
		BaseURL:      cfg.OpenAIBaseURL,
		SystemPrompt: cfg.SystemPrompt,
		Timeout:      cfg.CompletionTimeout,
	})
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
