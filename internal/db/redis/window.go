package redis

import (
	"context"
	"time"

	"github.com/kailas-cloud/scout/internal/db"
)

// IncrWindow runs INCR, PEXPIRE NX and PTTL in one pipeline.
// INCR never loses concurrent updates; PEXPIRE NX only starts the window on
// the first hit, so the key disappears exactly one window after it was created.
func (s *Store) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	resps := s.client.DoMulti(ctx,
		s.b().Incr().Key(key).Build(),
		s.b().Pexpire().Key(key).Milliseconds(window.Milliseconds()).Nx().Build(),
		s.b().Pttl().Key(key).Build(),
	)

	count, err := resps[0].AsInt64()
	if err != nil {
		return 0, 0, &db.Error{Op: db.OpIncr, Err: err}
	}
	if err := resps[1].Error(); err != nil {
		return 0, 0, &db.Error{Op: db.OpPExpire, Err: err}
	}
	ms, err := resps[2].AsInt64()
	if err != nil {
		return 0, 0, &db.Error{Op: db.OpPTTL, Err: err}
	}
	// -1 (no expiry) or -2 (gone) should not happen after PEXPIRE NX; report a full window.
	ttl := time.Duration(ms) * time.Millisecond
	if ms < 0 {
		ttl = window
	}
	return count, ttl, nil
}
