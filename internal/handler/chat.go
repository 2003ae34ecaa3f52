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

// ChatHandler handles HTTP requests for conversation operations.
type ChatHandler struct {
	svc    *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		svc:    svc,
		logger: logger,
	}
}

// Generate handles POST /api/v1/chat/new.
func (h *ChatHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, ok := middleware.BodyFromContext[dto.NewChatRequest](r.Context())
	if !ok {
		writeError(h.logger, w, r, apperror.NewValidation(middleware.MsgInvalidBody))
		return
	}

	chats, err := h.svc.Generate(r.Context(), auth.IdentityFromContext(r.Context()), req.Message)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GenerateResponse{Chats: dto.ToChatResponses(chats)})
}

// History handles GET /api/v1/chat/all-chats.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	chats, err := h.svc.History(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryResponse{
		Message: dto.StatusOK,
		Chats:   dto.ToChatResponses(chats),
	})
}

// Clear handles DELETE /api/v1/chat/delete.
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context(), auth.IdentityFromContext(r.Context())); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: dto.StatusOK})
}
