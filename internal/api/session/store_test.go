package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 30, 8, 0, 0, 0, time.UTC)}
	store := NewStore(ttl)
	store.now = clock.Now
	return store, clock
}

func TestStore_CreateAndGet(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	userID := uuid.New()

	sess, err := store.Create(userID, "Asha", "asha@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(sess.Token) < 43 {
		t.Errorf("expected a 32-byte token, got %q", sess.Token)
	}

	got, ok := store.Get(sess.Token)
	if !ok {
		t.Fatal("expected session to be found")
	}
	if got.UserID != userID || got.Email != "asha@example.com" {
		t.Errorf("unexpected session %+v", got)
	}

	other, err := store.Create(userID, "Asha", "asha@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if other.Token == sess.Token {
		t.Error("tokens must be unique")
	}
}

func TestStore_SlidingExpiry(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	sess, err := store.Create(uuid.New(), "Asha", "asha@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	clock.now = clock.now.Add(50 * time.Minute)
	if _, ok := store.Get(sess.Token); !ok {
		t.Fatal("session should still be live")
	}

	// Get extended the expiry, so another 50 minutes is fine.
	clock.now = clock.now.Add(50 * time.Minute)
	if _, ok := store.Get(sess.Token); !ok {
		t.Fatal("session should have been extended")
	}

	clock.now = clock.now.Add(time.Hour)
	if _, ok := store.Get(sess.Token); ok {
		t.Fatal("session should have expired")
	}
	if store.Len() != 0 {
		t.Errorf("expired session should be removed on access, %d left", store.Len())
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	sess, err := store.Create(uuid.New(), "Asha", "asha@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store.Delete(sess.Token)
	store.Delete("unknown")

	if _, ok := store.Get(sess.Token); ok {
		t.Error("deleted session must not be found")
	}
}

func TestStore_Sweep(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := store.Create(uuid.New(), "user", "user@example.com"); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	clock.now = clock.now.Add(30 * time.Minute)
	live, err := store.Create(uuid.New(), "live", "live@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	clock.now = clock.now.Add(45 * time.Minute)
	if removed := store.Sweep(); removed != 3 {
		t.Errorf("expected 3 sessions swept, got %d", removed)
	}
	if _, ok := store.Get(live.Token); !ok {
		t.Error("live session must survive the sweep")
	}
}

func TestStore_RunStopsWithContext(t *testing.T) {
	store := NewStore(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- store.Run(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context must not carry a session")
	}

	sess := &Session{Token: "t", UserID: uuid.New()}
	got, ok := FromContext(WithContext(context.Background(), sess))
	if !ok || got.UserID != sess.UserID {
		t.Errorf("expected session from context, got %+v", got)
	}
}
