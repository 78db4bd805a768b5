// Package chat maintains the ordered message log for a chat session,
// reconciling in-memory state, the device-local cache, and the remote
// message table. Local state is authoritative for display; the remote
// store is a best-effort mirror.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/josephvutrinh/eira/internal/cache"
	"github.com/josephvutrinh/eira/internal/metrics"
	"github.com/josephvutrinh/eira/internal/models"
)

var (
	ErrEmptyText   = errors.New("message text is required")
	ErrInvalidRole = errors.New("invalid message role")
)

// RemoteStore is the slice of the table store the synchronizer uses.
type RemoteStore interface {
	ListMessages(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	InsertMessage(ctx context.Context, msg models.Message) (*models.Message, error)
	DeleteMessages(ctx context.Context, sessionID string) error
}

// Synchronizer keeps one chat session's message log consistent across
// memory, the local cache, and the remote store. Remote failures never
// block or revert local state.
type Synchronizer struct {
	sessionID string
	remote    RemoteStore // nil when no remote store is configured
	cache     cache.Cache
	logger    zerolog.Logger

	mu       sync.Mutex
	messages []models.Message
	// remoteIDs maps the stable client-generated id to the server-assigned
	// id once the remote insert confirms, so references taken before the
	// rewrite still resolve.
	remoteIDs map[string]string
}

// NewSynchronizer creates a synchronizer for sessionID, seeding the
// in-memory log from the local cache. remote may be nil.
func NewSynchronizer(sessionID string, remote RemoteStore, c cache.Cache, logger zerolog.Logger) *Synchronizer {
	s := &Synchronizer{
		sessionID: sessionID,
		remote:    remote,
		cache:     c,
		logger:    logger,
		remoteIDs: make(map[string]string),
	}
	s.messages = s.readCachedLog()
	return s
}

// SessionID returns the chat-session correlation key this log belongs to.
func (s *Synchronizer) SessionID() string {
	return s.sessionID
}

// GetOrCreateSessionID returns the device's chat-session id, generating and
// caching one on first use. The id is independent of authentication.
func GetOrCreateSessionID(c cache.Cache) string {
	if existing, err := c.Get(cache.KeyChatSessionID); err == nil && existing != "" {
		return existing
	}

	created := uuid.NewString()
	if err := c.Set(cache.KeyChatSessionID, created); err != nil {
		// Cache unusable; the id still works for this process.
		return created
	}
	return created
}

// Load performs one-shot hydration from the remote store: the fetched
// history, ordered by created_at ascending and bounded by limit, replaces
// the in-memory log and the cache entry. With no remote store configured
// it returns empty and leaves local state untouched; no merge with
// unsynced local messages is ever attempted. Remote errors are logged and
// leave local state unchanged.
func (s *Synchronizer) Load(ctx context.Context, limit int) []models.Message {
	if s.remote == nil {
		return nil
	}

	fetched, err := s.remote.ListMessages(ctx, s.sessionID, limit)
	if err != nil {
		metrics.SyncFailures.WithLabelValues("load").Inc()
		s.logger.Warn().Err(err).Str("session_id", s.sessionID).Msg("remote history load failed")
		return nil
	}

	s.mu.Lock()
	s.messages = fetched
	s.remoteIDs = make(map[string]string)
	s.persistLocked()
	s.mu.Unlock()

	return s.snapshot()
}

// Append inserts an optimistic message into the in-memory log and mirrors
// it to the remote store. The local insert is committed (and cached)
// before any network round-trip; a failed remote insert is logged and the
// optimistic message retained. When the remote store assigns a different
// id, the message's id is rewritten once, matched by the optimistic id.
func (s *Synchronizer) Append(ctx context.Context, role models.Role, text string) (models.Message, error) {
	if text == "" {
		return models.Message{}, ErrEmptyText
	}
	if !role.Valid() {
		return models.Message{}, ErrInvalidRole
	}

	localID := ulid.Make().String()
	msg := models.Message{
		ID:        localID,
		LocalID:   localID,
		SessionID: s.sessionID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.persistLocked()
	s.mu.Unlock()

	metrics.MessagesAppended.WithLabelValues(string(role)).Inc()

	if s.remote == nil {
		return msg, nil
	}

	created, err := s.remote.InsertMessage(ctx, msg)
	if err != nil {
		metrics.SyncFailures.WithLabelValues("insert").Inc()
		s.logger.Warn().Err(err).Str("session_id", s.sessionID).Msg("remote message insert failed, keeping optimistic message")
		return msg, nil
	}

	return s.confirm(localID, created), nil
}

// confirm applies the server-assigned identity to the optimistic message.
// Confirming with the same id is a no-op.
func (s *Synchronizer) confirm(localID string, created *models.Message) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].LocalID != localID {
			continue
		}
		if created != nil && created.ID != "" && created.ID != localID {
			s.messages[i].ID = created.ID
			s.remoteIDs[localID] = created.ID
			s.persistLocked()
		}
		return s.messages[i]
	}

	// Cleared while the insert was in flight; nothing to rewrite.
	return models.Message{LocalID: localID}
}

// Clear empties the in-memory log and the cache synchronously, then issues
// a best-effort remote delete. The local clear is final regardless of the
// remote outcome.
func (s *Synchronizer) Clear(ctx context.Context) {
	s.mu.Lock()
	s.messages = nil
	s.remoteIDs = make(map[string]string)
	if err := s.cache.Remove(cache.MessagesKey(s.sessionID)); err != nil {
		s.logger.Warn().Err(err).Msg("message cache remove failed")
	}
	s.mu.Unlock()

	metrics.SessionsCleared.Inc()

	if s.remote == nil {
		return
	}

	if err := s.remote.DeleteMessages(ctx, s.sessionID); err != nil {
		metrics.SyncFailures.WithLabelValues("delete").Inc()
		s.logger.Warn().Err(err).Str("session_id", s.sessionID).Msg("remote message delete failed")
	}
}

// Messages returns a copy of the in-memory log in send order.
func (s *Synchronizer) Messages() []models.Message {
	return s.snapshot()
}

// Lookup resolves a message by its current id, its original client id, or
// a server id recorded for it, so references from before an id rewrite
// stay valid.
func (s *Synchronizer) Lookup(id string) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.messages {
		if msg.ID == id || msg.LocalID == id || s.remoteIDs[msg.LocalID] == id {
			return msg, true
		}
	}
	return models.Message{}, false
}

func (s *Synchronizer) snapshot() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]models.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// persistLocked overwrites the cache entry with the whole log. Callers
// must hold s.mu. Sequences are small; a full overwrite on every mutation
// keeps the cache trivially consistent.
func (s *Synchronizer) persistLocked() {
	data, err := json.Marshal(s.messages)
	if err != nil {
		s.logger.Warn().Err(err).Msg("message log marshal failed")
		return
	}
	if err := s.cache.Set(cache.MessagesKey(s.sessionID), string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("message cache write failed")
	}
}

// readCachedLog loads the persisted log. Missing or unreadable entries
// yield an empty log.
func (s *Synchronizer) readCachedLog() []models.Message {
	raw, err := s.cache.Get(cache.MessagesKey(s.sessionID))
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("message cache read failed")
		}
		return nil
	}

	var messages []models.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		s.logger.Warn().Err(err).Msg("ignoring malformed cached message log")
		return nil
	}
	return messages
}
