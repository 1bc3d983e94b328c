package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter manages per-provider rate limits. It is constructed explicitly
// and injected wherever it is needed; there is no process-wide singleton,
// so tests can build one with whatever limits they want.
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// New creates an empty limiter table.
func New() *Limiter {
	return &Limiter{limiters: make(map[string]*rate.Limiter)}
}

// Set installs or replaces the limit for a provider. requestsPerSecond <= 0
// means unlimited.
func (l *Limiter) Set(name string, requestsPerSecond float64, burst int) {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	l.mu.Lock()
	l.limiters[name] = rate.NewLimiter(limit, burst)
	l.mu.Unlock()
}

// Wait blocks until the provider's limiter permits an event. It returns an
// error if the context is cancelled before the event can proceed. Providers
// without an installed limit are not limited.
func (l *Limiter) Wait(ctx context.Context, name string) error {
	l.mu.RLock()
	limiter, exists := l.limiters[name]
	l.mu.RUnlock()

	if !exists {
		return nil
	}
	return limiter.Wait(ctx)
}

// Allow reports whether an event for the provider may happen now.
func (l *Limiter) Allow(name string) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[name]
	l.mu.RUnlock()

	if !exists {
		return true
	}
	return limiter.Allow()
}
