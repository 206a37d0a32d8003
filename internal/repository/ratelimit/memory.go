// Package ratelimit provides fixed-window hit counters for client admission.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/metrics"
)

type entry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps per-key windows in process memory.
// The key set is bounded: expired windows are swept periodically, and when the
// store is full the window closest to expiry is evicted to make room.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxKeys int
	now     func() time.Time
	logger  *zap.Logger
}

// NewMemoryStore creates an in-memory store holding at most maxKeys windows.
func NewMemoryStore(maxKeys int, logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		maxKeys: maxKeys,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the time source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Hit records one request for key and returns the count in the current window
// together with the window's reset time. A window that has passed its reset
// time is replaced by a fresh one starting at count 1.
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && !now.After(e.resetAt) {
		e.count++
		return e.count, e.resetAt, nil
	}

	if _, ok := s.entries[key]; !ok && s.maxKeys > 0 && len(s.entries) >= s.maxKeys {
		if s.sweepLocked(now) == 0 {
			s.evictOldestLocked()
		}
	}

	e := &entry{count: 1, resetAt: now.Add(window)}
	s.entries[key] = e
	metrics.RateLimitTrackedKeys.Set(float64(len(s.entries)))
	return e.count, e.resetAt, nil
}

// Sweep drops every expired window and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps expired windows every interval until ctx is cancelled.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("Rate limit windows swept", zap.Int("removed", n))
			}
		}
	}
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range s.entries {
		if now.After(e.resetAt) {
			delete(s.entries, k)
			removed++
		}
	}
	metrics.RateLimitTrackedKeys.Set(float64(len(s.entries)))
	return removed
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range s.entries {
		if !found || e.resetAt.Before(oldest) {
			oldestKey, oldest, found = k, e.resetAt, true
		}
	}
	if found {
		delete(s.entries, oldestKey)
		s.logger.Warn("Rate limit store full, evicted active window",
			zap.String("key", oldestKey),
			zap.Int("max_keys", s.maxKeys),
		)
	}
}
