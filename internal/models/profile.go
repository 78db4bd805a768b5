package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the app-data row keyed by the auth user id.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
