package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/josephvutrinh/eira/internal/store"
)

// AdminDeleter is the privileged identity operation the deletion handler
// delegates to. Implemented by identity.Client with a service role key.
type AdminDeleter interface {
	AdminDeleteUser(ctx context.Context, userID string) error
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	admin AdminDeleter    // nil when the identity provider is not configured
	data  store.DataStore // nil when the table store is not configured
	rdb   *redis.Client   // nil when Redis is not configured
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(admin AdminDeleter, data store.DataStore, rdb *redis.Client) *Handler {
	return &Handler{admin: admin, data: data, rdb: rdb}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
