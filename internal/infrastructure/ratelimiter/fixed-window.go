package ratelimiter

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter decides whether a request from key may proceed. When it may not,
// the duration says how long until it will.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type FixedWindowRateLimiter struct {
	counts sync.Map // string -> *clientData
	limit  int64
	window time.Duration
	now    func() time.Time
}

type clientData struct {
	count   atomic.Int64
	resetAt atomic.Value // time.Time
	mu      sync.Mutex   // held only while resetting
}

type Option func(*FixedWindowRateLimiter)

// WithClock replaces time.Now. Windows are aligned to the clock, so a fake
// clock makes the limiter deterministic.
func WithClock(now func() time.Time) Option {
	return func(rl *FixedWindowRateLimiter) { rl.now = now }
}

func NewFixedWindowRateLimiter(limit int, window time.Duration, opts ...Option) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()
	nextReset := now.Truncate(rl.window).Add(rl.window)

	val, _ := rl.counts.LoadOrStore(key, &clientData{})
	data := val.(*clientData)

	if current, ok := data.resetAt.Load().(time.Time); ok && now.Before(current) {
		return rl.take(data, now, current)
	}

	data.mu.Lock()
	defer data.mu.Unlock()

	// Another request may have reset the window while we waited.
	if current, ok := data.resetAt.Load().(time.Time); ok && now.Before(current) {
		return rl.take(data, now, current)
	}

	data.count.Store(1)
	data.resetAt.Store(nextReset)
	return true, 0
}

func (rl *FixedWindowRateLimiter) take(data *clientData, now, resetAt time.Time) (bool, time.Duration) {
	if data.count.Add(1)-1 >= rl.limit {
		data.count.Add(-1)
		return false, resetAt.Sub(now)
	}
	return true, 0
}

// Cleanup forgets keys whose window has ended.
func (rl *FixedWindowRateLimiter) Cleanup() {
	now := rl.now()
	rl.counts.Range(func(key, value any) bool {
		data := value.(*clientData)
		if resetAt, ok := data.resetAt.Load().(time.Time); ok && !now.Before(resetAt) {
			rl.counts.Delete(key)
		}
		return true
	})
}

// SourceKey identifies the client of r by host, without the port.
func SourceKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
