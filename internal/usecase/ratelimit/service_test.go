package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	reporl "github.com/kailas-cloud/scout/internal/repository/ratelimit"
)

type failingStore struct{}

func (failingStore) Hit(_ context.Context, _ string, _ time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("conn refused")
}

func newTestService(now *time.Time) *Service {
	clock := func() time.Time { return *now }
	store := reporl.NewMemoryStore(0, zap.NewNop()).WithClock(clock)
	s := New(store, 10, time.Minute, zap.NewNop())
	s.now = clock
	return s
}

func TestAdmit_NWithinWindowThenReject(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s := newTestService(&now)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		d := s.Admit(ctx, "1.2.3.4")
		if !d.Allowed {
			t.Fatalf("request %d must be admitted", i)
		}
		if d.Remaining != 10-i {
			t.Fatalf("request %d: expected remaining %d, got %d", i, 10-i, d.Remaining)
		}
	}

	now = now.Add(15 * time.Second)
	d := s.Admit(ctx, "1.2.3.4")
	if d.Allowed {
		t.Fatal("11th request within the window must be rejected")
	}
	if d.RetryAfter != 45*time.Second {
		t.Errorf("expected retry after 45s, got %v", d.RetryAfter)
	}
	if d.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", d.Remaining)
	}
}

func TestAdmit_NewWindowAfterReset(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s := newTestService(&now)
	ctx := context.Background()

	for range 11 {
		s.Admit(ctx, "k")
	}
	now = now.Add(time.Minute + time.Millisecond)

	if d := s.Admit(ctx, "k"); !d.Allowed {
		t.Fatal("first request of a new window must be admitted")
	}
}

func TestAdmit_ClientsIsolated(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s := newTestService(&now)
	ctx := context.Background()

	for range 11 {
		s.Admit(ctx, "noisy")
	}
	if d := s.Admit(ctx, "quiet"); !d.Allowed {
		t.Fatal("another client must not be affected")
	}
}

func TestAdmit_FailsOpen(t *testing.T) {
	s := New(failingStore{}, 10, time.Minute, zap.NewNop())

	d := s.Admit(context.Background(), "k")
	if !d.Allowed {
		t.Fatal("store failure must admit the request")
	}
}

func TestAdmit_EvictionFromFullStoreResetsQuota(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := reporl.NewMemoryStore(1, zap.NewNop()).WithClock(clock)
	s := New(store, 2, time.Minute, zap.NewNop())
	s.now = clock
	ctx := context.Background()

	for range 2 {
		_ = s.Admit(ctx, "heavy")
	}
	if d := s.Admit(ctx, "heavy"); d.Allowed {
		t.Fatal("heavy must be over its limit")
	}

	// A second client fills the single slot and pushes heavy's active window out.
	if d := s.Admit(ctx, "other"); !d.Allowed {
		t.Fatal("other must be admitted")
	}

	d := s.Admit(ctx, "heavy")
	if !d.Allowed {
		t.Fatal("evicted client starts a fresh window and is admitted again")
	}
	if d.Remaining != 1 {
		t.Errorf("expected remaining 1 in the fresh window, got %d", d.Remaining)
	}
}
