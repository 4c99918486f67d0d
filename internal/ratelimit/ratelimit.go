package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"ainews/internal/logger"
)

// ErrBudgetExhausted is returned once the daily request budget is spent.
var ErrBudgetExhausted = errors.New("llm request budget exhausted")

// Limiter paces chat-completion requests: it enforces a minimum interval
// between calls and an optional daily request budget (0 = unlimited).
type Limiter struct {
	mu          sync.Mutex
	count       int
	max         int
	minInterval time.Duration
	lastCall    time.Time
	resetTime   time.Time
}

func New(max int, minInterval time.Duration) *Limiter {
	return &Limiter{
		max:         max,
		minInterval: minInterval,
		resetTime:   time.Now().Add(24 * time.Hour), // Reset daily
	}
}

// Acquire blocks until the minimum interval since the previous request
// has passed, then consumes one unit of budget. It fails fast when the
// budget is spent or the context ends while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	l.checkReset()

	if l.max > 0 && l.count >= l.max {
		logger.Warn("llm request budget reached", "used", l.count, "max", l.max)
		l.mu.Unlock()
		return ErrBudgetExhausted
	}

	wait := time.Duration(0)
	if !l.lastCall.IsZero() {
		if elapsed := time.Since(l.lastCall); elapsed < l.minInterval {
			wait = l.minInterval - elapsed
		}
	}
	// Reserve the slot before sleeping so concurrent acquirers space out.
	l.lastCall = time.Now().Add(wait)
	l.count++
	l.mu.Unlock()

	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}

// Used reports how much of the budget this window consumed.
func (l *Limiter) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func (l *Limiter) checkReset() {
	if time.Now().After(l.resetTime) {
		l.count = 0
		l.resetTime = time.Now().Add(24 * time.Hour)
	}
}
