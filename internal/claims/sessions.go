package claims

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type sessionState struct {
	lastHeartbeat time.Time
	expiresAt     time.Time
}

// sessionTracker holds per-wallet heartbeat state. It only decides the size
// of each accrual increment; the accrued duration itself is persisted on the
// account so eligibility survives restarts.
type sessionTracker struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
}

func newSessionTracker() *sessionTracker {
	return &sessionTracker{sessions: map[string]*sessionState{}}
}

func (t *sessionTracker) start(wallet string, now time.Time, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[wallet] = &sessionState{lastHeartbeat: now, expiresAt: now.Add(ttl)}
}

// advance returns the accrual delta for a heartbeat, clamped by the tracker's
// bounds. A gap larger than maxDelta is discarded entirely: accepting it
// would let a client fabricate playtime by withholding heartbeats and
// claiming the whole gap at once.
func (t *sessionTracker) advance(wallet string, now time.Time, ttl, maxDelta time.Duration) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.sessions[wallet]
	if !ok || now.After(st.expiresAt) {
		return 0, false
	}
	delta := now.Sub(st.lastHeartbeat)
	st.lastHeartbeat = now
	st.expiresAt = now.Add(ttl)
	if delta <= 0 || delta > maxDelta {
		return 0, true
	}
	return delta, true
}

func (t *sessionTracker) end(wallet string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, wallet)
}

func (t *sessionTracker) sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for w, st := range t.sessions {
		if now.After(st.expiresAt) {
			delete(t.sessions, w)
			n++
		}
	}
	return n
}

// StartJanitor periodically evicts expired sessions.
func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := c.tracker.sweep(now); n > 0 {
					log.Debug().Int("evicted", n).Msg("session janitor sweep")
				}
			}
		}
	}()
}
