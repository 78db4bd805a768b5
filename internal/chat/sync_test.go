package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/josephvutrinh/eira/internal/cache"
	"github.com/josephvutrinh/eira/internal/models"
)

// fakeRemote implements RemoteStore for tests.
type fakeRemote struct {
	mu        sync.Mutex
	inserted  []models.Message
	history   []models.Message
	insertErr error
	deleteErr error
	listErr   error
	// assignID, when set, produces the server id for inserts.
	// Empty keeps the client id (id-rewrite no-op case).
	assignID func(n int) string
	deleted  []string
}

func (f *fakeRemote) ListMessages(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeRemote) InsertMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	created := msg
	if f.assignID != nil {
		created.ID = f.assignID(len(f.inserted))
	}
	f.inserted = append(f.inserted, created)
	return &created, nil
}

func (f *fakeRemote) DeleteMessages(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, sessionID)
	return nil
}

func newLocalSynchronizer(t *testing.T) (*Synchronizer, *cache.MemoryCache) {
	t.Helper()
	c := cache.NewMemoryCache()
	return NewSynchronizer("sess-1", nil, c, zerolog.Nop()), c
}

func TestAppendOrderMatchesCallOrder(t *testing.T) {
	s, _ := newLocalSynchronizer(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.Append(ctx, models.RoleUser, fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got := s.Messages()
	if len(got) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Fatalf("createdAt not monotonic at %d", i)
		}
		if got[i-1].Text != fmt.Sprintf("msg %d", i-1) {
			t.Fatalf("order broken at %d: %q", i-1, got[i-1].Text)
		}
	}
}

func TestAppendWithoutRemote(t *testing.T) {
	s, _ := newLocalSynchronizer(t)
	ctx := context.Background()

	msg, err := s.Append(ctx, models.RoleUser, "hello")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("optimistic message must have a non-empty id")
	}
	if msg.Role != models.RoleUser || msg.Text != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	got := s.Messages()
	if len(got) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(got))
	}

	// One-shot hydration: with no remote store, Load returns empty and
	// does not merge with (or disturb) the local log.
	if loaded := s.Load(ctx, 50); len(loaded) != 0 {
		t.Fatalf("expected empty load, got %d messages", len(loaded))
	}
	if got := s.Messages(); len(got) != 1 {
		t.Fatalf("load must not disturb local state, got %d messages", len(got))
	}
}

func TestAppendValidation(t *testing.T) {
	s, _ := newLocalSynchronizer(t)
	ctx := context.Background()

	if _, err := s.Append(ctx, models.RoleUser, ""); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, err := s.Append(ctx, models.Role("bot"), "hi"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestRemoteIDRewrite(t *testing.T) {
	remote := &fakeRemote{assignID: func(n int) string { return fmt.Sprintf("srv-%d", n) }}
	c := cache.NewMemoryCache()
	s := NewSynchronizer("sess-1", remote, c, zerolog.Nop())

	msg, err := s.Append(context.Background(), models.RoleUser, "hello")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if msg.ID != "srv-0" {
		t.Fatalf("expected server id, got %q", msg.ID)
	}
	if msg.LocalID == "" || msg.LocalID == msg.ID {
		t.Fatalf("local token must survive the rewrite: %+v", msg)
	}

	// Stale references to the optimistic id must still resolve.
	if got, ok := s.Lookup(msg.LocalID); !ok || got.ID != "srv-0" {
		t.Fatalf("stale id lookup failed: %+v ok=%v", got, ok)
	}
	if got, ok := s.Lookup("srv-0"); !ok || got.Text != "hello" {
		t.Fatalf("server id lookup failed: %+v ok=%v", got, ok)
	}
}

func TestIDRewriteIdempotent(t *testing.T) {
	// Remote echoes the client id back: no visible mutation.
	remote := &fakeRemote{}
	s := NewSynchronizer("sess-1", remote, cache.NewMemoryCache(), zerolog.Nop())

	msg, err := s.Append(context.Background(), models.RoleUser, "hello")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if msg.ID != msg.LocalID {
		t.Fatalf("id must be unchanged when remote echoes it: %+v", msg)
	}

	got := s.Messages()
	if got[0].ID != msg.LocalID {
		t.Fatalf("stored id mutated: %+v", got[0])
	}
}

func TestRemoteInsertFailureKeepsOptimistic(t *testing.T) {
	remote := &fakeRemote{insertErr: errors.New("connection refused")}
	s := NewSynchronizer("sess-1", remote, cache.NewMemoryCache(), zerolog.Nop())

	msg, err := s.Append(context.Background(), models.RoleUser, "hello")
	if err != nil {
		t.Fatalf("remote failure must not surface: %v", err)
	}
	if msg.Text != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if got := s.Messages(); len(got) != 1 {
		t.Fatalf("optimistic message must be retained, got %d", len(got))
	}
}

func TestClearIsLocalFirstAndFinal(t *testing.T) {
	remote := &fakeRemote{deleteErr: errors.New("remote delete failed")}
	c := cache.NewMemoryCache()
	s := NewSynchronizer("sess-1", remote, c, zerolog.Nop())
	ctx := context.Background()

	if _, err := s.Append(ctx, models.RoleUser, "hello"); err != nil {
		t.Fatal(err)
	}

	s.Clear(ctx)

	// Local state must be empty immediately, remote failure or not.
	if got := s.Messages(); len(got) != 0 {
		t.Fatalf("expected empty log after clear, got %d", len(got))
	}
	if _, err := c.Get(cache.MessagesKey("sess-1")); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected cache entry removed, got %v", err)
	}
}

func TestClearIssuesRemoteDelete(t *testing.T) {
	remote := &fakeRemote{}
	s := NewSynchronizer("sess-1", remote, cache.NewMemoryCache(), zerolog.Nop())

	s.Clear(context.Background())

	if len(remote.deleted) != 1 || remote.deleted[0] != "sess-1" {
		t.Fatalf("expected delete-by-session, got %v", remote.deleted)
	}
}

func TestLoadReplacesLocalLog(t *testing.T) {
	remote := &fakeRemote{history: []models.Message{
		{ID: "srv-a", SessionID: "sess-1", Role: models.RoleUser, Text: "earlier"},
		{ID: "srv-b", SessionID: "sess-1", Role: models.RoleSupport, Text: "reply"},
	}}
	c := cache.NewMemoryCache()
	s := NewSynchronizer("sess-1", remote, c, zerolog.Nop())

	got := s.Load(context.Background(), 50)
	if len(got) != 2 || got[0].ID != "srv-a" || got[1].ID != "srv-b" {
		t.Fatalf("unexpected hydration result: %+v", got)
	}
	if mem := s.Messages(); len(mem) != 2 {
		t.Fatalf("in-memory log not replaced: %d", len(mem))
	}

	// Cache mirrors the hydrated log.
	raw, err := c.Get(cache.MessagesKey("sess-1"))
	if err != nil {
		t.Fatalf("cache read: %v", err)
	}
	var cached []models.Message
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("cache unmarshal: %v", err)
	}
	if len(cached) != 2 {
		t.Fatalf("cache not overwritten: %d", len(cached))
	}
}

func TestLoadErrorLeavesStateUntouched(t *testing.T) {
	remote := &fakeRemote{listErr: errors.New("timeout")}
	s := NewSynchronizer("sess-1", remote, cache.NewMemoryCache(), zerolog.Nop())

	if _, err := s.Append(context.Background(), models.RoleUser, "hello"); err != nil {
		t.Fatal(err)
	}

	if got := s.Load(context.Background(), 50); len(got) != 0 {
		t.Fatalf("expected empty result on load error, got %d", len(got))
	}
	if got := s.Messages(); len(got) != 1 {
		t.Fatalf("failed load must not clobber local state, got %d", len(got))
	}
}

func TestSeededFromCache(t *testing.T) {
	c := cache.NewMemoryCache()
	seed := []models.Message{{ID: "m1", SessionID: "sess-1", Role: models.RoleUser, Text: "persisted"}}
	data, _ := json.Marshal(seed)
	c.Set(cache.MessagesKey("sess-1"), string(data))

	s := NewSynchronizer("sess-1", nil, c, zerolog.Nop())
	got := s.Messages()
	if len(got) != 1 || got[0].Text != "persisted" {
		t.Fatalf("expected cache-seeded log, got %+v", got)
	}
}

func TestOverlappingAppendsDoNotCorrupt(t *testing.T) {
	remote := &fakeRemote{assignID: func(n int) string { return fmt.Sprintf("srv-%d", n) }}
	s := NewSynchronizer("sess-1", remote, cache.NewMemoryCache(), zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Append(ctx, models.RoleUser, fmt.Sprintf("m-%d", i)); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got := s.Messages()
	if len(got) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(got))
	}
	seen := make(map[string]bool)
	for _, msg := range got {
		if msg.ID == "" || seen[msg.LocalID] {
			t.Fatalf("corrupted log entry: %+v", msg)
		}
		seen[msg.LocalID] = true
	}
}

func TestGetOrCreateSessionID(t *testing.T) {
	c := cache.NewMemoryCache()

	first := GetOrCreateSessionID(c)
	if first == "" {
		t.Fatal("expected non-empty session id")
	}
	second := GetOrCreateSessionID(c)
	if second != first {
		t.Fatalf("session id must be stable per device: %q vs %q", first, second)
	}
}
