// Package ratelimit provides a token-bucket limiter that also honours
// server-requested backoff (HTTP 429 Retry-After).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff applies when a 429 carries no usable Retry-After.
const DefaultBackoff = 60 * time.Second

// Config holds rate limiting configuration for one remote service.
type Config struct {
	// RequestsPerSecond is the sustained rate limit. Zero disables limiting.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// Service defaults, well below documented provider limits.
var (
	Dropbox = Config{RequestsPerSecond: 10, BurstSize: 20}
	OpenAI  = Config{RequestsPerSecond: 2, BurstSize: 4}
)

// Limiter gates outbound requests for one service.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// New creates a limiter. A non-positive rate yields an unlimited limiter
// that still honours backoff.
func New(cfg Config) *Limiter {
	limit := rate.Inf
	burst := cfg.BurstSize
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be sent, first sitting out any backoff
// set by Backoff.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Backoff pauses all callers for d. Non-positive d uses DefaultBackoff.
// An earlier deadline never shortens a later one.
func (l *Limiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = DefaultBackoff
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if until := time.Now().Add(d); until.After(l.retryAt) {
		l.retryAt = until
	}
}

// RetryAt returns the current backoff deadline, zero if none was set.
func (l *Limiter) RetryAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retryAt
}
