package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/josephvutrinh/eira/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		email TEXT DEFAULT '',
		full_name TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT now(),
		updated_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_chat_messages_session
		ON chat_messages(session_id, created_at);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ListMessages retrieves a session's messages ordered by created_at
// ascending, bounded by limit.
func (s *PostgresStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, role, text, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var id uuid.UUID
		if err := rows.Scan(&id, &msg.SessionID, &msg.Role, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.ID = id.String()
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// InsertMessage stores a message and returns the created row, including
// the server-assigned id.
func (s *PostgresStore) InsertMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	created := &models.Message{}
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (session_id, role, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, session_id, role, text, created_at
	`, msg.SessionID, msg.Role, msg.Text, msg.CreatedAt).Scan(
		&id,
		&created.SessionID,
		&created.Role,
		&created.Text,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	created.ID = id.String()
	return created, nil
}

// DeleteMessages removes all messages for a session.
func (s *PostgresStore) DeleteMessages(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM chat_messages WHERE session_id = $1
	`, sessionID)
	return err
}

// GetProfile retrieves a profile by user id.
func (s *PostgresStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile := &models.Profile{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, full_name, created_at, updated_at
		FROM profiles WHERE id = $1
	`, id).Scan(
		&profile.ID,
		&profile.Email,
		&profile.FullName,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes the app-data row for a user.
func (s *PostgresStore) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM profiles WHERE id = $1
	`, id)
	return err
}
