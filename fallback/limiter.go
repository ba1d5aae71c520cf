// Package fallback implements the two-attempt PQC→classical fallback
// manager (spec §4.4): a pqc_only attempt followed, only on a
// whitelisted failure and only when the per-peer cooldown has
// elapsed, by a classic_only retry.
package fallback

import (
	"sync"
	"time"
)

// DefaultCooldown is the per-peer downgrade cooldown window.
const DefaultCooldown = 300 * time.Second

// RateLimiter enforces the per-peer fallback cooldown. After a
// fallback for a given peer, further fallbacks for that same peer are
// refused until the cooldown elapses. Built on time.Since, which reads
// the monotonic clock reading carried inside time.Time rather than
// wall-clock time, so a wall-clock rewind cannot forgive a cooldown
// early.
type RateLimiter struct {
	mu           sync.Mutex
	cooldown     time.Duration
	lastFallback map[string]time.Time
}

// NewRateLimiter constructs a RateLimiter with the given cooldown. A
// non-positive cooldown falls back to DefaultCooldown.
func NewRateLimiter(cooldown time.Duration) *RateLimiter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &RateLimiter{
		cooldown:     cooldown,
		lastFallback: make(map[string]time.Time),
	}
}

// Allow reports whether peer may fall back right now. When it may
// not, the second return value is the remaining cooldown in whole
// seconds (rounded up), per spec §4.4: "the limiter returns remaining
// cooldown seconds when refusing".
func (r *RateLimiter) Allow(peer string) (bool, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	last, ok := r.lastFallback[peer]
	if !ok {
		return true, 0
	}

	elapsed := time.Since(last)
	if elapsed >= r.cooldown {
		return true, 0
	}

	remaining := r.cooldown - elapsed
	return false, int64(remaining/time.Second) + 1
}

// Record marks that peer just performed a fallback, starting (or
// restarting) its cooldown window.
func (r *RateLimiter) Record(peer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFallback[peer] = time.Now()
}

// Reset clears any recorded fallback for peer, for use by admin/test
// tooling; not exercised on the handshake hot path.
func (r *RateLimiter) Reset(peer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lastFallback, peer)
}
