package account

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/josephvutrinh/eira/internal/cache"
	"github.com/josephvutrinh/eira/internal/models"
)

type fakeIdentity struct {
	user      *models.User
	getErr    error
	invokeErr error
	signedOut bool
	invoked   []string
}

func (f *fakeIdentity) GetUser(ctx context.Context) (*models.User, error) {
	return f.user, f.getErr
}

func (f *fakeIdentity) InvokeFunction(ctx context.Context, name string, body interface{}) error {
	f.invoked = append(f.invoked, name)
	return f.invokeErr
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.signedOut = true
	return nil
}

type fakeProfiles struct {
	deleted []uuid.UUID
	err     error
}

func (f *fakeProfiles) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestDeleteAccountFallback(t *testing.T) {
	c := cache.NewMemoryCache()
	c.Set(cache.KeySession, `{"user":{"email":"a@b.com"}}`)
	m := NewManager(nil, nil, c, zerolog.Nop())

	result, err := m.DeleteAccount(context.Background())
	if err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if result.DeletedAuthUser || !result.UsedFallback {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, err := c.Get(cache.KeySession); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("session cache should be cleared, got %v", err)
	}
	if marker, err := c.Get(cache.KeyAccountDeletedAt); err != nil || marker == "" {
		t.Fatalf("deletion timestamp missing: %q, %v", marker, err)
	}
}

func TestDeleteAccountNoUser(t *testing.T) {
	id := &fakeIdentity{}
	m := NewManager(id, nil, cache.NewMemoryCache(), zerolog.Nop())

	result, err := m.DeleteAccount(context.Background())
	if err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if result.DeletedAuthUser || result.UsedFallback {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(id.invoked) != 0 {
		t.Fatal("nothing should be invoked without a user")
	}
}

func TestDeleteAccountGetUserErrorPropagates(t *testing.T) {
	wantErr := errors.New("provider down")
	m := NewManager(&fakeIdentity{getErr: wantErr}, nil, cache.NewMemoryCache(), zerolog.Nop())

	_, err := m.DeleteAccount(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestDeleteAccountPrivilegedSuccess(t *testing.T) {
	userID := uuid.NewString()
	id := &fakeIdentity{user: &models.User{ID: userID, Email: "a@b.com"}}
	profiles := &fakeProfiles{}
	m := NewManager(id, profiles, cache.NewMemoryCache(), zerolog.Nop())

	result, err := m.DeleteAccount(context.Background())
	if err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if !result.DeletedAuthUser || result.UsedFallback || result.Reason != "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(id.invoked) != 1 || id.invoked[0] != "delete-account" {
		t.Fatalf("expected delete-account invocation, got %v", id.invoked)
	}
	if !id.signedOut {
		t.Fatal("must sign out after privileged deletion")
	}
	if len(profiles.deleted) != 0 {
		t.Fatal("profile row must not be touched on the privileged path")
	}
}

func TestDeleteAccountDegradedPath(t *testing.T) {
	userID := uuid.NewString()
	id := &fakeIdentity{
		user:      &models.User{ID: userID, Email: "a@b.com"},
		invokeErr: errors.New("function not deployed"),
	}
	profiles := &fakeProfiles{}
	m := NewManager(id, profiles, cache.NewMemoryCache(), zerolog.Nop())

	result, err := m.DeleteAccount(context.Background())
	if err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if result.DeletedAuthUser || result.UsedFallback {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Reason == "" {
		t.Fatal("degraded outcome must carry a reason")
	}
	if len(profiles.deleted) != 1 || profiles.deleted[0].String() != userID {
		t.Fatalf("expected profile row delete, got %v", profiles.deleted)
	}
	if !id.signedOut {
		t.Fatal("must sign out after degraded deletion")
	}
}

func TestDeleteAccountProfileDeleteErrorIgnored(t *testing.T) {
	id := &fakeIdentity{
		user:      &models.User{ID: uuid.NewString()},
		invokeErr: errors.New("function errored"),
	}
	profiles := &fakeProfiles{err: errors.New("permission denied")}
	m := NewManager(id, profiles, cache.NewMemoryCache(), zerolog.Nop())

	result, err := m.DeleteAccount(context.Background())
	if err != nil {
		t.Fatalf("profile delete errors are best-effort: %v", err)
	}
	if result.DeletedAuthUser || result.UsedFallback || result.Reason == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

// Outcomes are mutually exclusive and exhaustive across the input space.
func TestDeleteAccountOutcomesExhaustive(t *testing.T) {
	cases := []struct {
		name    string
		manager *Manager
		want    models.DeletionResult
	}{
		{
			name:    "unconfigured",
			manager: NewManager(nil, nil, cache.NewMemoryCache(), zerolog.Nop()),
			want:    models.DeletionResult{DeletedAuthUser: false, UsedFallback: true},
		},
		{
			name:    "configured, no user",
			manager: NewManager(&fakeIdentity{}, nil, cache.NewMemoryCache(), zerolog.Nop()),
			want:    models.DeletionResult{DeletedAuthUser: false, UsedFallback: false},
		},
		{
			name: "configured, function succeeds",
			manager: NewManager(&fakeIdentity{user: &models.User{ID: uuid.NewString()}},
				nil, cache.NewMemoryCache(), zerolog.Nop()),
			want: models.DeletionResult{DeletedAuthUser: true, UsedFallback: false},
		},
		{
			name: "configured, function fails",
			manager: NewManager(&fakeIdentity{user: &models.User{ID: uuid.NewString()}, invokeErr: errors.New("boom")},
				nil, cache.NewMemoryCache(), zerolog.Nop()),
			want: models.DeletionResult{DeletedAuthUser: false, UsedFallback: false, Reason: fallbackReason},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.manager.DeleteAccount(context.Background())
			if err != nil {
				t.Fatalf("DeleteAccount: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
