package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutormatematica/tutorchat/internal/model"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	chats         JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email);
`

const userColumns = `id::text, name, email, password_hash, chats, created_at, updated_at`

// PostgresStore is a UserStore backed by a PostgreSQL table. Each user's
// log is held in a JSONB array column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool, verifies it and applies the
// users schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// EnsureSchema creates the users table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, usersSchema); err != nil {
		return fmt.Errorf("failed to apply users schema: %w", err)
	}
	return nil
}

// Create inserts u and assigns a UUID.
func (s *PostgresStore) Create(ctx context.Context, u *model.User) error {
	if u.Chats == nil {
		u.Chats = []model.ChatTurn{}
	}
	chats, err := json.Marshal(u.Chats)
	if err != nil {
		return fmt.Errorf("failed to encode chats: %w", err)
	}

	now := time.Now().UTC()
	u.ID = uuid.New().String()
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
		INSERT INTO users (id, name, email, password_hash, chats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
	`

	_, err = s.pool.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		chats,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail returns the user registered under email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// FindByID returns the user with id.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return u, nil
}

// List returns all users ordered by creation time.
func (s *PostgresStore) List(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Save overwrites the profile fields of u. The chats column is left alone.
func (s *PostgresStore) Save(ctx context.Context, u *model.User) error {
	if _, err := uuid.Parse(u.ID); err != nil {
		return ErrUserNotFound
	}

	u.Email = NormalizeEmail(u.Email)
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AppendChats concatenates turns onto the stored array in one statement.
func (s *PostgresStore) AppendChats(ctx context.Context, id string, turns ...model.ChatTurn) ([]model.ChatTurn, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	if err := checkTurns(turns); err != nil {
		return nil, err
	}

	added, err := json.Marshal(nonNilTurns(turns))
	if err != nil {
		return nil, fmt.Errorf("failed to encode chats: %w", err)
	}

	query := `
		UPDATE users
		SET chats = chats || $2::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING chats
	`

	var raw []byte
	if err := s.pool.QueryRow(ctx, query, id, added).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to append chats: %w", err)
	}

	return decodeTurns(raw)
}

// Clear empties the user's log.
func (s *PostgresStore) Clear(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrUserNotFound
	}

	tag, err := s.pool.Exec(ctx, `UPDATE users SET chats = '[]'::jsonb, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to clear chats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to PostgresStore.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// scanUser scans a row into a User. Works with both pgx.Row and pgx.Rows.
func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u   model.User
		raw []byte
	)
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&raw,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Chats, err = decodeTurns(raw)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func decodeTurns(raw []byte) ([]model.ChatTurn, error) {
	turns := []model.ChatTurn{}
	if len(raw) == 0 {
		return turns, nil
	}
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}
	return turns, nil
}

func nonNilTurns(turns []model.ChatTurn) []model.ChatTurn {
	if turns == nil {
		return []model.ChatTurn{}
	}
	return turns
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	// PostgreSQL error code 23505 is unique_violation
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
