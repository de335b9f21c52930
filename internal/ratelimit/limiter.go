package ratelimit

import (
	"sync"
	"time"
)

// Window describes one rate-limit policy. CountFailuresOnly windows give the
// count back on a successful outcome, so only failed attempts burn budget.
type Window struct {
	Name              string
	Limit             int
	Period            time.Duration
	CountFailuresOnly bool
}

// The three policies in use. Message sends get their own, lower ceiling so a
// runaway client cannot flood every room member.
var (
	APIWindow  = Window{Name: "api", Limit: 120, Period: time.Minute}
	SendWindow = Window{Name: "send", Limit: 20, Period: time.Minute}
	AuthWindow = Window{Name: "auth", Limit: 10, Period: 15 * time.Minute, CountFailuresOnly: true}
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter tracks per-identity counters. Each process enforces its own
// windows; there is no cross-process state.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates a Limiter.
func New() *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow records an attempt for identity under the given window. It returns
// false with a retry-after duration once the window's limit is reached.
// Exceeding the limit is a rejection, not an error.
func (l *Limiter) Allow(identity string, w Window) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := w.Name + ":" + identity

	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(w.Period)}
		return true, 0
	}

	if e.count >= w.Limit {
		return false, e.resetAt.Sub(now)
	}
	e.count++
	return true, 0
}

// Success gives one attempt back for windows configured to count only
// failures. It is a no-op for the others.
func (l *Limiter) Success(identity string, w Window) {
	if !w.CountFailuresOnly {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := w.Name + ":" + identity
	if e, ok := l.entries[key]; ok && e.count > 0 {
		e.count--
	}
}

// Cleanup removes expired entries. Call periodically to bound memory.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, key)
		}
	}
}

// Run starts a janitor loop that evicts expired entries until stop is closed.
func (l *Limiter) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-stop:
			return
		}
	}
}
