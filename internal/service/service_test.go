package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/tutormatematica/tutorchat/internal/auth"
	"github.com/tutormatematica/tutorchat/internal/completion"
	"github.com/tutormatematica/tutorchat/internal/model"
	"github.com/tutormatematica/tutorchat/internal/repository"
)

const testJWTSecret = "service-test-jwt-secret-0123456789"

// mockStore wraps a MemoryStore; set a function field to override one call.
type mockStore struct {
	*repository.MemoryStore

	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	appendChatsFn func(ctx context.Context, id string, turns ...model.ChatTurn) ([]model.ChatTurn, error)
	saveFn        func(ctx context.Context, u *model.User) error
	listFn        func(ctx context.Context) ([]*model.User, error)
}

func newMockStore() *mockStore {
	return &mockStore{MemoryStore: repository.NewMemoryStore()}
}

func (m *mockStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return m.MemoryStore.FindByID(ctx, id)
}

func (m *mockStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return m.MemoryStore.FindByEmail(ctx, email)
}

func (m *mockStore) AppendChats(ctx context.Context, id string, turns ...model.ChatTurn) ([]model.ChatTurn, error) {
	if m.appendChatsFn != nil {
		return m.appendChatsFn(ctx, id, turns...)
	}
	return m.MemoryStore.AppendChats(ctx, id, turns...)
}

func (m *mockStore) Save(ctx context.Context, u *model.User) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, u)
	}
	return m.MemoryStore.Save(ctx, u)
}

func (m *mockStore) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return m.MemoryStore.List(ctx)
}

// mockCompleter implements completion.Completer for testing.
type mockCompleter struct {
	mu       sync.Mutex
	calls    [][]model.ChatTurn
	reply    string
	err      error
	complete func(ctx context.Context, turns []model.ChatTurn) (string, error)
}

var _ completion.Completer = (*mockCompleter)(nil)

func (m *mockCompleter) Complete(ctx context.Context, turns []model.ChatTurn) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]model.ChatTurn(nil), turns...))
	m.mu.Unlock()

	if m.complete != nil {
		return m.complete(ctx, turns)
	}
	return m.reply, m.err
}

func (m *mockCompleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBoom = errors.New("boom")

func newTestAuthService(store repository.UserStore, algorithm string) *AuthService {
	return NewAuthService(
		store,
		auth.NewPasswordHasher(algorithm),
		auth.NewTokenService(testJWTSecret),
		auth.DefaultSessionTTL,
		nil,
		discardLogger(),
	)
}
