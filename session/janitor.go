package session

import (
	"context"
	"time"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/logging"
)

// RunJanitor periodically sweeps idle sessions from the store until the
// context is canceled. It works against the SessionStore interface so any
// backend gains TTL cleanup without its own timer loop. Blocking call; run
// it in its own goroutine.
func RunJanitor(ctx context.Context, store core.SessionStore, interval, ttl time.Duration, logger logging.Logger) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.ExpireOlderThan(ttl); n > 0 {
				logger.Info("expired idle sessions", "count", n, "ttl", ttl.String())
			}
		}
	}
}
