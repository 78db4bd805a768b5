package models

// DeletionResult is the terminal outcome of an account deletion attempt.
// Exactly one of the three combinations occurs:
//
//	{DeletedAuthUser: true}                       — privileged deletion succeeded
//	{DeletedAuthUser: false, UsedFallback: true}  — no remote provider, local teardown
//	{DeletedAuthUser: false, UsedFallback: false} — remote path, identity not removed
type DeletionResult struct {
	DeletedAuthUser bool   `json:"deleted_auth_user"`
	UsedFallback    bool   `json:"used_fallback"`
	Reason          string `json:"reason,omitempty"`
}
