package models

import "time"

// User is the identity record attached to a session. In fallback mode only
// the email (and optional full name) is known; remote sessions also carry
// the provider-assigned id.
type User struct {
	ID       string `json:"id,omitempty"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// Session is the current authenticated identity, or absence thereof when nil.
type Session struct {
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`

	// UsedFallback marks a session produced without the remote identity
	// provider. Fallback sessions are persisted to the local cache;
	// remote-backed sessions are durable on the provider side and are
	// not duplicated locally.
	UsedFallback bool `json:"used_fallback"`

	// AccessToken is the bearer token for remote-backed sessions.
	// Empty in fallback mode.
	AccessToken string `json:"access_token,omitempty"`
}
