// Package ratelimit provides a small injectable rate-limiting capability.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter decides whether a keyed caller may proceed.
type Limiter interface {
	Allow(key string) bool
}

// window tracks request counts for one key inside the current window.
type window struct {
	start time.Time
	count int
}

// FixedWindow is an in-memory fixed-window limiter: at most limit calls
// per key per window. Counters for idle keys are dropped lazily on the
// next Allow call that finds them expired.
type FixedWindow struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewFixedWindow creates a limiter allowing limit calls per period for each key.
func NewFixedWindow(limit int, period time.Duration) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Allow reports whether the caller identified by key is within its budget.
func (l *FixedWindow) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}
