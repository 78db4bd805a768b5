package models

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser    Role = "user"
	RoleSupport Role = "support"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSupport
}

// Message represents a single chat message within a chat session.
//
// ID is the identifier the UI keys on. It starts as a client-generated ULID
// and may be rewritten exactly once with the server-assigned id after a
// successful remote insert. LocalID is the original client token and never
// changes, so references taken before the rewrite still resolve.
type Message struct {
	ID        string    `json:"id"`
	LocalID   string    `json:"local_id,omitempty"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
