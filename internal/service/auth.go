// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tutormatematica/tutorchat/internal/apperror"
	"github.com/tutormatematica/tutorchat/internal/auth"
	"github.com/tutormatematica/tutorchat/internal/metrics"
	"github.com/tutormatematica/tutorchat/internal/model"
	"github.com/tutormatematica/tutorchat/internal/repository"
)

// Client-facing messages. The front end matches on some of these.
const (
	MsgUserExists          = "User already exists"
	MsgInvalidCredentials  = "Invalid email or password"
	MsgSessionUserNotFound = "User not found OR token expired"
	MsgPermissionMismatch  = "Permission did not match"
	MsgChatUserNotFound    = "User not found"
)

// Session is the result of a successful signup or login.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles account business logic.
type AuthService struct {
	store   repository.UserStore
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenService
	ttl     time.Duration
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	store repository.UserStore,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	ttl time.Duration,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}
	return &AuthService{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		ttl:     ttl,
		metrics: recorder,
		logger:  logger,
	}
}

// SignupInput defines input for creating an account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup creates an account and opens a session for it.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	email := repository.NormalizeEmail(input.Email)

	_, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return nil, apperror.NewConflict(MsgUserExists)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.NewInternal(fmt.Errorf("lookup email: %w", err))
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hash password: %w", err))
	}

	user := &model.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Chats:        []model.ChatTurn{},
	}
	if err := s.store.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same address.
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, apperror.NewConflict(MsgUserExists)
		}
		return nil, apperror.NewInternal(fmt.Errorf("create user: %w", err))
	}

	s.metrics.IncSignup()
	return s.openSession(user)
}

// Login verifies credentials and opens a session. Unknown addresses and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin(metrics.StatusFailure)
			return nil, apperror.NewInvalidCredentials(MsgInvalidCredentials)
		}
		return nil, apperror.NewInternal(fmt.Errorf("lookup email: %w", err))
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash unreadable",
			"user_id", user.ID,
			"error", err,
		)
	}
	if !ok {
		s.metrics.IncLogin(metrics.StatusFailure)
		return nil, apperror.NewInvalidCredentials(MsgInvalidCredentials)
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	s.metrics.IncLogin(metrics.StatusSuccess)
	return s.openSession(user)
}

// rehash upgrades a stored hash to the configured algorithm. Failures are
// logged and do not fail the login.
func (s *AuthService) rehash(ctx context.Context, user *model.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}

	user.PasswordHash = hash
	if err := s.store.Save(ctx, user); err != nil {
		s.logger.Warn("password rehash not saved", "user_id", user.ID, "error", err)
		return
	}
	s.logger.Info("password hash upgraded", "user_id", user.ID)
}

// Status returns the user behind a verified session.
func (s *AuthService) Status(ctx context.Context, identity *model.Identity) (*model.User, error) {
	return resolveSessionUser(ctx, s.store, identity)
}

// Logout checks the session the same way Status does. The caller clears
// the cookie; tokens are not revoked server-side.
func (s *AuthService) Logout(ctx context.Context, identity *model.Identity) (*model.User, error) {
	return resolveSessionUser(ctx, s.store, identity)
}

// ListUsers returns every account.
func (s *AuthService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

func (s *AuthService) openSession(user *model.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email, s.ttl)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issue token: %w", err))
	}
	return &Session{
		User:      user,
		Token:     token,
		ExpiresAt: time.Now().Add(s.ttl),
	}, nil
}

// resolveSessionUser loads the user named by identity and checks that the
// record matches the token subject.
func resolveSessionUser(ctx context.Context, store repository.UserStore, identity *model.Identity) (*model.User, error) {
	if identity == nil {
		return nil, apperror.NewUnauthenticated(MsgSessionUserNotFound)
	}

	user, err := store.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NewUnauthenticated(MsgSessionUserNotFound)
		}
		return nil, apperror.NewInternal(fmt.Errorf("lookup session user: %w", err))
	}

	if user.ID != identity.UserID {
		return nil, apperror.NewPermissionMismatch(MsgPermissionMismatch)
	}
	return user, nil
}
