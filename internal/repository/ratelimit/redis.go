package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/scout/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "ratelimit:"

// counter is the consumer interface for shared window counting (ISP).
type counter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisStore shares windows across API replicas through Redis/Valkey.
// Expiry is delegated to the server, so no sweeping is needed.
type RedisStore struct {
	counter counter
	now     func() time.Time
}

// NewRedisStore creates a store on top of a window counter.
func NewRedisStore(c counter) *RedisStore {
	return &RedisStore{counter: c, now: time.Now}
}

// Hit records one request for key and returns the count in the current window
// together with the window's reset time.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	count, ttl, err := s.counter.IncrWindow(ctx, keyPrefix+key, window)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit hit %s: %w", key, err)
	}
	return count, s.now().Add(ttl), nil
}
