package main

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tutormatematica/tutorchat/internal/auth"
	"github.com/tutormatematica/tutorchat/internal/config"
	"github.com/tutormatematica/tutorchat/internal/handler"
	"github.com/tutormatematica/tutorchat/internal/handler/dto"
	"github.com/tutormatematica/tutorchat/internal/metrics"
	"github.com/tutormatematica/tutorchat/internal/middleware"
)

// chatLockMargin is added to the completion timeout for the Redis chat
// lock TTL, so a lock never expires while its holder is still waiting on
// the completion API.
const chatLockMargin = 30 * time.Second

type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	tokens   *auth.TokenService
	cookie   *auth.SessionCookie
	// limiter may be nil, which disables the auth rate limit.
	limiter middleware.AuthRateLimiter

	users   *handler.UserHandler
	chats   *handler.ChatHandler
	health  *handler.HealthHandler
	metrics *handler.MetricsHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	cfg := d.cfg
	h := handler.New()
	validate := middleware.NewValidator()

	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.IsProduction = cfg.IsProduction()
	if cfg.FrontendURL != "" {
		securityCfg.ConnectSources = append(securityCfg.ConnectSources, cfg.FrontendURL)
	}
	if cfg.MaxRequestBodySize > 0 {
		securityCfg.MaxRequestBodySize = cfg.MaxRequestBodySize
	}

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(securityCfg))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(securityCfg.MaxRequestBodySize))

	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", d.metrics.Metrics)

	session := middleware.Session(middleware.SessionConfig{
		Logger:  d.logger,
		Cookie:  d.cookie,
		Tokens:  d.tokens,
		Metrics: d.recorder,
	})

	rateLimit := middleware.RateLimitAuth(middleware.RateLimitConfig{
		Logger:        d.logger,
		Limiter:       d.limiter,
		Metrics:       d.recorder,
		Enabled:       cfg.RateLimitAuthEnabled,
		RatePerMinute: cfg.RateLimitAuthPerMinute,
		Burst:         cfg.RateLimitAuthBurst,
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", d.users.List)
			r.With(rateLimit, middleware.ValidateBody[dto.SignupRequest](validate)).Post("/signup", d.users.Signup)
			r.With(rateLimit, middleware.ValidateBody[dto.LoginRequest](validate)).Post("/login", d.users.Login)
			r.With(session).Get("/auth-status", d.users.AuthStatus)
			r.With(session).Get("/logout", d.users.Logout)
		})

		r.Route("/chat", func(r chi.Router) {
			// Body validation runs before the session check.
			r.With(middleware.ValidateBody[dto.NewChatRequest](validate), session).Post("/new", d.chats.Generate)
			r.With(session).Get("/all-chats", d.chats.History)
			r.With(session).Delete("/delete", d.chats.Clear)
		})

		r.NotFound(h.NotFound)
		r.MethodNotAllowed(h.MethodNotAllowed)
	})

	if cfg.StaticDir != "" {
		static := handler.NewStaticHandler(cfg.StaticDir)
		r.Get("/", static.ServeHTTP)
		r.NotFound(static.ServeHTTP)
	} else {
		r.Get("/", h.Hello)
		r.NotFound(h.NotFound)
	}
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
