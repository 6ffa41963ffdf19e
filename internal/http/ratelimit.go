package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultMutationLimit  = 60
	defaultMutationWindow = time.Minute
	limiterSweepEvery     = 5 * time.Minute
)

// rateLimiter counts mutating requests per client IP in fixed windows.
// Reads are never limited; only adds, moves, imports and polls cost quota.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*clientWindow

	done     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	start time.Time
	count int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 {
		limit = defaultMutationLimit
	}
	if window <= 0 {
		window = defaultMutationWindow
	}
	rl := &rateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*clientWindow),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

// sweep forgets clients whose window ended.
func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, w := range rl.windows {
		if now.Sub(w.start) >= rl.window {
			delete(rl.windows, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow spends one unit of clientIP's quota. When the quota is gone it
// reports how long until the window resets.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.windows[clientIP] = &clientWindow{start: now, count: 1}
		return true, 0
	}
	if w.count >= rl.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false, w.start.Add(rl.window).Sub(now)
	}
	w.count++
	return true, 0
}

// ActiveClients returns the number of client IPs currently tracked.
func (rl *rateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}
