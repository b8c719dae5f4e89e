package signal

import (
	"sync"
	"time"

	"github.com/avdeyev/pingroom/internal/domain"
)

// BroadcastLimiter bounds how often one connection may trigger a room-wide
// broadcast (get-best-ping). Sliding window per session.
type BroadcastLimiter struct {
	mu       sync.Mutex
	history  map[domain.SessionID][]time.Time
	limit    int
	interval time.Duration
}

func NewBroadcastLimiter(limit int, interval time.Duration) *BroadcastLimiter {
	return &BroadcastLimiter{
		history:  make(map[domain.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *BroadcastLimiter) Allow(sid domain.SessionID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[sid]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[sid] = fresh
	return true
}

// Forget drops a departed session's window so the map does not grow with
// connection churn.
func (rl *BroadcastLimiter) Forget(sid domain.SessionID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, sid)
}
