package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tutormatematica/tutorchat/internal/model"
)

// MemoryStore is an in-process UserStore for tests and local development.
// Data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*model.User
	byEmail map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

// Create inserts u and assigns a UUID.
func (s *MemoryStore) Create(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := NormalizeEmail(u.Email)
	if _, exists := s.byEmail[email]; exists {
		return ErrEmailExists
	}

	now := time.Now().UTC()
	u.ID = uuid.New().String()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Chats == nil {
		u.Chats = []model.ChatTurn{}
	}

	s.users[u.ID] = cloneUser(u)
	s.byEmail[email] = u.ID
	return nil
}

// FindByEmail returns the user registered under email.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(s.users[id]), nil
}

// FindByID returns the user with id.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

// List returns all users ordered by creation time.
func (s *MemoryStore) List(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// Save replaces the profile fields of the stored copy of u.
func (s *MemoryStore) Save(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return ErrUserNotFound
	}

	email := NormalizeEmail(u.Email)
	if email != existing.Email {
		if _, taken := s.byEmail[email]; taken {
			return ErrEmailExists
		}
		delete(s.byEmail, existing.Email)
		s.byEmail[email] = u.ID
	}

	u.Email = email
	u.UpdatedAt = time.Now().UTC()
	existing.Name = u.Name
	existing.Email = u.Email
	existing.PasswordHash = u.PasswordHash
	existing.UpdatedAt = u.UpdatedAt
	return nil
}

// AppendChats appends turns under the store lock.
func (s *MemoryStore) AppendChats(ctx context.Context, id string, turns ...model.ChatTurn) ([]model.ChatTurn, error) {
	if err := checkTurns(turns); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Chats = append(u.Chats, turns...)
	u.UpdatedAt = time.Now().UTC()
	return copyTurns(u.Chats), nil
}

// Clear empties the user's log.
func (s *MemoryStore) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Chats = []model.ChatTurn{}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Chats = copyTurns(u.Chats)
	return &c
}
