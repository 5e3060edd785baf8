package claims

import (
	"sync"
	"time"
)

// nonceCache rejects single-use nonce replays within a sliding retention
// window. It is a process-local fast path; cross-process replay safety comes
// from the conditional write at the persistence layer.
type nonceCache struct {
	ttl  time.Duration
	mu   sync.Mutex
	seen map[string]time.Time
}

func newNonceCache(ttl time.Duration) *nonceCache {
	return &nonceCache{ttl: ttl, seen: map[string]time.Time{}}
}

// Register records the nonce. Returns false if the nonce was already seen
// within the retention window.
func (c *nonceCache) Register(nonce string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if exp, ok := c.seen[nonce]; ok && now.Before(exp) {
		return false
	}
	c.prune(now)
	c.seen[nonce] = now.Add(c.ttl)
	return true
}

// Release forgets a nonce so the caller may retry with it after a confirmed
// revert.
func (c *nonceCache) Release(nonce string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, nonce)
}

func (c *nonceCache) prune(now time.Time) {
	for n, exp := range c.seen {
		if !now.Before(exp) {
			delete(c.seen, n)
		}
	}
}
