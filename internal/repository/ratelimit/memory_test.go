package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemoryStore(maxKeys int) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	return NewMemoryStore(maxKeys, zap.NewNop()).WithClock(clock.Now), clock
}

func TestHit_CountsWithinWindow(t *testing.T) {
	s, clock := newTestMemoryStore(0)
	ctx := context.Background()

	for i := int64(1); i <= 11; i++ {
		count, resetAt, err := s.Hit(ctx, "1.2.3.4", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != i {
			t.Fatalf("hit %d: expected count %d, got %d", i, i, count)
		}
		if !resetAt.Equal(clock.Now().Add(time.Minute)) {
			t.Fatalf("window must not move within a window: %v", resetAt)
		}
	}
}

func TestHit_ResetsOnlyAfterResetTime(t *testing.T) {
	s, clock := newTestMemoryStore(0)
	ctx := context.Background()

	_, _, _ = s.Hit(ctx, "k", time.Minute)
	clock.Advance(time.Minute)

	// exactly at resetAt the window is still active
	if count, _, _ := s.Hit(ctx, "k", time.Minute); count != 2 {
		t.Fatalf("expected count 2 at reset boundary, got %d", count)
	}

	clock.Advance(time.Millisecond)
	count, resetAt, _ := s.Hit(ctx, "k", time.Minute)
	if count != 1 {
		t.Fatalf("expected new window with count 1, got %d", count)
	}
	if !resetAt.Equal(clock.Now().Add(time.Minute)) {
		t.Fatalf("expected fresh resetAt, got %v", resetAt)
	}
}

func TestHit_KeysAreIndependent(t *testing.T) {
	s, _ := newTestMemoryStore(0)
	ctx := context.Background()

	_, _, _ = s.Hit(ctx, "a", time.Minute)
	_, _, _ = s.Hit(ctx, "a", time.Minute)
	if count, _, _ := s.Hit(ctx, "b", time.Minute); count != 1 {
		t.Fatalf("expected independent count for b, got %d", count)
	}
}

func TestHit_ConcurrentNoLostUpdates(t *testing.T) {
	s, _ := newTestMemoryStore(0)
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, _, _ = s.Hit(ctx, "shared", time.Minute)
		}()
	}
	wg.Wait()

	if count, _, _ := s.Hit(ctx, "shared", time.Minute); count != workers+1 {
		t.Fatalf("expected count %d, got %d", workers+1, count)
	}
}

func TestSweep_RemovesExpired(t *testing.T) {
	s, clock := newTestMemoryStore(0)
	ctx := context.Background()

	_, _, _ = s.Hit(ctx, "old", time.Minute)
	clock.Advance(30 * time.Second)
	_, _, _ = s.Hit(ctx, "new", time.Minute)
	clock.Advance(31 * time.Second)

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 key left, got %d", s.Len())
	}
}

func TestHit_BoundedKeys(t *testing.T) {
	s, clock := newTestMemoryStore(2)
	ctx := context.Background()

	_, _, _ = s.Hit(ctx, "first", time.Minute)
	clock.Advance(time.Second)
	_, _, _ = s.Hit(ctx, "second", time.Minute)
	clock.Advance(time.Second)
	_, _, _ = s.Hit(ctx, "third", time.Minute)

	if s.Len() != 2 {
		t.Fatalf("expected store capped at 2, got %d", s.Len())
	}
	// "first" had the earliest reset and was evicted; it starts over
	if count, _, _ := s.Hit(ctx, "second", time.Minute); count != 2 {
		t.Fatalf("expected second to survive with count 2, got %d", count)
	}
}

func TestHit_FullStorePrefersSweep(t *testing.T) {
	s, clock := newTestMemoryStore(2)
	ctx := context.Background()

	_, _, _ = s.Hit(ctx, "expired", time.Second)
	_, _, _ = s.Hit(ctx, "live", time.Hour)
	clock.Advance(2 * time.Second)
	_, _, _ = s.Hit(ctx, "incoming", time.Hour)

	if count, _, _ := s.Hit(ctx, "live", time.Hour); count != 2 {
		t.Fatalf("live window must not be evicted when an expired one exists, got count %d", count)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, _ := newTestMemoryStore(0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
