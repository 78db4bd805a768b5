// Package account orchestrates multi-step account deletion across the
// privileged deletion function, the app-data fallback, and local cache
// teardown.
package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/josephvutrinh/eira/internal/cache"
	"github.com/josephvutrinh/eira/internal/metrics"
	"github.com/josephvutrinh/eira/internal/models"
)

// deleteFunctionName is the deployed privileged deletion function.
const deleteFunctionName = "delete-account"

// fallbackReason explains the degraded outcome when the privileged
// function is absent or failing.
const fallbackReason = "no delete-account function available; deleted profile row (if permitted) and signed out"

// IdentityClient is the slice of the identity provider API the manager uses.
type IdentityClient interface {
	GetUser(ctx context.Context) (*models.User, error)
	InvokeFunction(ctx context.Context, name string, body interface{}) error
	SignOut(ctx context.Context) error
}

// ProfileStore deletes the user's app-data row in the fallback path.
type ProfileStore interface {
	DeleteProfile(ctx context.Context, id uuid.UUID) error
}

// Manager runs the account deletion state machine. Every terminal outcome
// is surfaced to the caller for user-facing messaging; nothing retries.
type Manager struct {
	identity IdentityClient // nil when no remote provider is configured
	profiles ProfileStore   // nil when no remote table store is configured
	cache    cache.Cache
	logger   zerolog.Logger
}

// NewManager creates a manager. identity and profiles may be nil.
func NewManager(identity IdentityClient, profiles ProfileStore, c cache.Cache, logger zerolog.Logger) *Manager {
	return &Manager{identity: identity, profiles: profiles, cache: c, logger: logger}
}

// DeleteAccount attempts to delete the current user's account.
// Linear state machine, no retries, first success wins:
//
//  1. No provider configured: clear local state, record a deletion
//     timestamp, done.
//  2. No current remote user: nothing to delete.
//  3. Privileged deletion function succeeds: sign out, identity removed.
//  4. Function absent or erroring: best-effort profile-row delete, sign
//     out; the auth user remains, reported via Reason.
func (m *Manager) DeleteAccount(ctx context.Context) (models.DeletionResult, error) {
	if m.identity == nil {
		if err := m.cache.Remove(cache.KeySession); err != nil {
			m.logger.Warn().Err(err).Msg("session cache remove failed")
		}
		if err := m.cache.Set(cache.KeyAccountDeletedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
			m.logger.Warn().Err(err).Msg("deletion marker write failed")
		}
		metrics.AccountDeletions.WithLabelValues("fallback").Inc()
		return models.DeletionResult{DeletedAuthUser: false, UsedFallback: true}, nil
	}

	user, err := m.identity.GetUser(ctx)
	if err != nil {
		return models.DeletionResult{}, err
	}
	if user == nil {
		metrics.AccountDeletions.WithLabelValues("no_user").Inc()
		return models.DeletionResult{DeletedAuthUser: false, UsedFallback: false}, nil
	}

	err = m.identity.InvokeFunction(ctx, deleteFunctionName, map[string]string{"userId": user.ID})
	if err == nil {
		m.signOut(ctx)
		metrics.AccountDeletions.WithLabelValues("deleted").Inc()
		return models.DeletionResult{DeletedAuthUser: true, UsedFallback: false}, nil
	}

	m.logger.Warn().Err(err).Str("user_id", user.ID).Msg("privileged deletion failed, falling back to app-data cleanup")

	// Best-effort: the profile row goes, the auth user stays.
	if m.profiles != nil {
		if id, parseErr := uuid.Parse(user.ID); parseErr == nil {
			if delErr := m.profiles.DeleteProfile(ctx, id); delErr != nil {
				m.logger.Warn().Err(delErr).Str("user_id", user.ID).Msg("profile row delete failed")
			}
		}
	}

	m.signOut(ctx)
	metrics.AccountDeletions.WithLabelValues("degraded").Inc()
	return models.DeletionResult{
		DeletedAuthUser: false,
		UsedFallback:    false,
		Reason:          fallbackReason,
	}, nil
}

// signOut ends the remote session. Deletion already reached a terminal
// state at this point, so failures are only logged.
func (m *Manager) signOut(ctx context.Context) {
	if err := m.identity.SignOut(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("sign-out after deletion failed")
	}
}
