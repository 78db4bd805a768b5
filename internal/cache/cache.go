package cache

import (
	"errors"
	"fmt"
)

// Well-known cache keys. The names are carried over from the original
// browser localStorage keys so a migrated device keeps its data.
const (
	KeySession          = "eira.session"
	KeyChatSessionID    = "eira_session_id"
	KeyAccountDeletedAt = "eira.accountDeletedAt"
)

// MessagesKey returns the cache key holding the serialized message log
// for a chat session.
func MessagesKey(sessionID string) string {
	return fmt.Sprintf("eira_chat_v1:%s", sessionID)
}

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("cache: key not found")

// Cache is a synchronous device-local key-value store.
// Both SQLiteCache and MemoryCache implement this interface.
type Cache interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)
	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error
	// Remove deletes the value for key. Removing a missing key is a no-op.
	Remove(key string) error
	// Close releases the underlying resources.
	Close() error
}
