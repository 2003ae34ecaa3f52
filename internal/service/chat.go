package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tutormatematica/tutorchat/internal/apperror"
	"github.com/tutormatematica/tutorchat/internal/cache"
	"github.com/tutormatematica/tutorchat/internal/completion"
	"github.com/tutormatematica/tutorchat/internal/metrics"
	"github.com/tutormatematica/tutorchat/internal/model"
	"github.com/tutormatematica/tutorchat/internal/repository"
)

// ChatService handles conversation business logic.
type ChatService struct {
	store     repository.UserStore
	completer completion.Completer
	locker    cache.Locker
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewChatService creates a new ChatService. A nil locker falls back to an
// in-process one.
func NewChatService(
	store repository.UserStore,
	completer completion.Completer,
	locker cache.Locker,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *ChatService {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		store:     store,
		completer: completer,
		locker:    locker,
		metrics:   recorder,
		logger:    logger,
	}
}

// Generate appends message to the user's log, asks the completer for a
// reply and appends that too. It returns the full log.
//
// The user turn is stored before the completion call. If the call fails the
// turn stays without a reply.
func (s *ChatService) Generate(ctx context.Context, identity *model.Identity, message string) ([]model.ChatTurn, error) {
	if identity == nil {
		return nil, apperror.NewUnauthenticated(MsgChatUserNotFound)
	}

	user, err := s.store.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NewUnauthenticated(MsgChatUserNotFound)
		}
		return nil, apperror.NewInternal(fmt.Errorf("lookup chat user: %w", err))
	}

	// One generation per user at a time keeps user/assistant pairs adjacent.
	release, err := s.locker.Lock(ctx, user.ID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("acquire chat lock: %w", err))
	}
	defer release()

	conversation, err := s.store.AppendChats(ctx, user.ID, model.NewChatTurn(model.RoleUser, message))
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("append user turn: %w", err))
	}

	start := time.Now()
	reply, err := s.completer.Complete(ctx, conversation)
	if err != nil {
		s.metrics.ObserveCompletion(metrics.StatusFailure, time.Since(start))
		s.logger.Error("completion failed",
			"user_id", user.ID,
			"turns", len(conversation),
			"error", err,
		)
		return nil, apperror.NewInternal(fmt.Errorf("complete: %w", err))
	}
	s.metrics.ObserveCompletion(metrics.StatusSuccess, time.Since(start))

	conversation, err = s.store.AppendChats(ctx, user.ID, model.NewChatTurn(model.RoleAssistant, reply))
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("append assistant turn: %w", err))
	}

	return conversation, nil
}

// History returns the stored conversation.
func (s *ChatService) History(ctx context.Context, identity *model.Identity) ([]model.ChatTurn, error) {
	user, err := resolveSessionUser(ctx, s.store, identity)
	if err != nil {
		return nil, err
	}
	if user.Chats == nil {
		return []model.ChatTurn{}, nil
	}
	return user.Chats, nil
}

// Clear empties the stored conversation. Clearing an empty log succeeds.
func (s *ChatService) Clear(ctx context.Context, identity *model.Identity) error {
	user, err := resolveSessionUser(ctx, s.store, identity)
	if err != nil {
		return err
	}

	if err := s.store.Clear(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.NewUnauthenticated(MsgSessionUserNotFound)
		}
		return apperror.NewInternal(fmt.Errorf("clear chats: %w", err))
	}

	s.metrics.IncChatCleared()
	return nil
}
