package jobs

import (
	"context"
	"log"
	"time"

	"campanile/api/internal/config"
	"campanile/api/internal/session"
)

// StartSessionSweepJob periodically deletes expired session rows from
// the postgres store. Expired sessions are already dead to Redeem; this
// only reclaims storage.
func StartSessionSweepJob(ctx context.Context, cfg config.Config, store *session.PostgresStore) {
	if !cfg.SessionSweepEnabled {
		return
	}
	if store == nil {
		log.Printf("session sweep disabled: postgres session store not configured")
		return
	}
	interval := cfg.SessionSweepEvery
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				deleted, err := store.DeleteExpired(tickCtx, time.Now().UTC())
				cancel()
				if err != nil {
					log.Printf("session sweep error: %v", err)
					continue
				}
				if deleted > 0 {
					log.Printf("session sweep removed %d expired sessions", deleted)
				}
			}
		}
	}()
}
