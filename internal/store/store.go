package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/josephvutrinh/eira/internal/models"
)

// DataStore defines the interface for the remote table store.
// PostgresStore implements this interface; tests use in-memory fakes.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Message operations, keyed by the device chat-session id.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	InsertMessage(ctx context.Context, msg models.Message) (*models.Message, error)
	DeleteMessages(ctx context.Context, sessionID string) error

	// Profile operations, keyed by the auth user id.
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error
}
