// Package session resolves the current authentication session, preferring
// the remote identity provider and falling back to device-local state when
// no provider is configured.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/josephvutrinh/eira/internal/cache"
	"github.com/josephvutrinh/eira/internal/models"
)

// Provider is the slice of the identity provider API the resolver uses.
type Provider interface {
	GetSession(ctx context.Context) (*models.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*models.Session, error)
	SignOut(ctx context.Context) error
}

// Resolver determines the current session. With a provider configured its
// answer is authoritative and never merged with the local cache; without
// one the cache is the only source.
type Resolver struct {
	provider Provider // nil when no remote provider is configured
	cache    cache.Cache
	logger   zerolog.Logger
}

// NewResolver creates a resolver. provider may be nil (fallback mode).
func NewResolver(provider Provider, c cache.Cache, logger zerolog.Logger) *Resolver {
	return &Resolver{provider: provider, cache: c, logger: logger}
}

// Configured reports whether a remote identity provider is in use.
func (r *Resolver) Configured() bool {
	return r.provider != nil
}

// GetSession returns the current session, or nil when signed out.
// Remote query errors are treated as signed-out, not surfaced.
func (r *Resolver) GetSession(ctx context.Context) *models.Session {
	if r.provider != nil {
		session, err := r.provider.GetSession(ctx)
		if err != nil {
			r.logger.Warn().Err(err).Msg("remote session query failed, treating as signed out")
			return nil
		}
		return session
	}

	return r.readCachedSession()
}

// SignInWithPassword signs in. Provider errors propagate unchanged; in
// fallback mode a local session is synthesized and persisted.
func (r *Resolver) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	if r.provider != nil {
		return r.provider.SignInWithPassword(ctx, email, password)
	}

	session := &models.Session{
		User:         models.User{Email: email},
		CreatedAt:    time.Now().UTC(),
		UsedFallback: true,
	}
	if err := r.writeCachedSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// SignUp registers a new user. The remote path may legitimately return a
// nil session (email confirmation pending); callers branch on presence.
func (r *Resolver) SignUp(ctx context.Context, email, password, fullName string) (*models.Session, error) {
	if r.provider != nil {
		return r.provider.SignUp(ctx, email, password, fullName)
	}

	session := &models.Session{
		User:         models.User{Email: email, FullName: fullName},
		CreatedAt:    time.Now().UTC(),
		UsedFallback: true,
	}
	if err := r.writeCachedSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// SignOut ends the current session. Remote errors propagate; the caller
// clears its in-memory session state regardless of the outcome.
func (r *Resolver) SignOut(ctx context.Context) error {
	if r.provider != nil {
		return r.provider.SignOut(ctx)
	}

	return r.cache.Remove(cache.KeySession)
}

// readCachedSession loads the fallback session from the cache. A missing
// or unreadable entry means signed out.
func (r *Resolver) readCachedSession() *models.Session {
	raw, err := r.cache.Get(cache.KeySession)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			r.logger.Warn().Err(err).Msg("session cache read failed")
		}
		return nil
	}

	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		r.logger.Warn().Err(err).Msg("ignoring malformed cached session")
		return nil
	}
	return &session
}

func (r *Resolver) writeCachedSession(session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.cache.Set(cache.KeySession, string(data))
}
