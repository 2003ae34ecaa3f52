package handler

import (
	"log/slog"
	"net/http"

	"github.com/tutormatematica/tutorchat/internal/apperror"
	"github.com/tutormatematica/tutorchat/internal/auth"
	"github.com/tutormatematica/tutorchat/internal/handler/dto"
	"github.com/tutormatematica/tutorchat/internal/middleware"
	"github.com/tutormatematica/tutorchat/internal/service"
)

// UserHandler handles HTTP requests for account and session operations.
type UserHandler struct {
	svc    *service.AuthService
	cookie *auth.SessionCookie
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.AuthService, cookie *auth.SessionCookie, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		cookie: cookie,
		logger: logger,
	}
}

// List handles GET /api/v1/users/.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserListResponse(users))
}

// Signup handles POST /api/v1/users/signup. The body is validated by
// middleware.ValidateBody.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := middleware.BodyFromContext[dto.SignupRequest](r.Context())
	if !ok {
		writeError(h.logger, w, r, apperror.NewValidation(middleware.MsgInvalidBody))
		return
	}

	session, err := h.svc.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if err := h.startSession(w, session); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	h.logger.Info("user_signed_up",
		"user_id", session.User.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	writeJSON(w, http.StatusOK, dto.ToSessionResponse(session.User))
}

// Login handles POST /api/v1/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := middleware.BodyFromContext[dto.LoginRequest](r.Context())
	if !ok {
		writeError(h.logger, w, r, apperror.NewValidation(middleware.MsgInvalidBody))
		return
	}

	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if err := h.startSession(w, session); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSessionResponse(session.User))
}

// AuthStatus handles GET /api/v1/users/auth-status.
func (h *UserHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Status(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToSessionResponse(user))
}

// Logout handles GET /api/v1/users/logout.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Logout(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	h.cookie.Clear(w)
	writeJSON(w, http.StatusOK, dto.ToSessionResponse(user))
}

// startSession replaces any prior session cookie with one for session.
func (h *UserHandler) startSession(w http.ResponseWriter, session *service.Session) error {
	h.cookie.Clear(w)
	if err := h.cookie.Set(w, session.Token); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}
