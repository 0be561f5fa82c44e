// Package ratelimit caps the number of AI requests spent in one pipeline
// run, as a guard on top of the provider-side quota handling.
package ratelimit

import (
	"log/slog"
	"sync"
)

// Limiter is a simple per-run request budget. Zero max means unlimited.
type Limiter struct {
	mu   sync.Mutex
	used int
	max  int
}

func New(max int) *Limiter {
	return &Limiter{max: max}
}

// Acquire consumes one request from the budget. It returns false once the
// budget is exhausted.
func (l *Limiter) Acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.used >= l.max {
		slog.Warn("AI request budget exhausted", "used", l.used, "max", l.max)
		return false
	}
	l.used++
	return true
}

// Used reports how many requests the run has consumed so far.
func (l *Limiter) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}
