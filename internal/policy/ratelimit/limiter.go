// Package ratelimit implements the token bucket shared by every outbound fetch.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/JakeFAU/apodex/internal/metrics"
	"golang.org/x/time/rate"
)

// DefaultInterval is the refill interval used when Config.Interval is unset.
const DefaultInterval = 2 * time.Second

// Limiter is a capacity-one token bucket refilled at a fixed interval.
// It is safe for concurrent use and is meant to be shared by pointer.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// Config holds rate limiter configuration.
type Config struct {
	// Interval between tokens. Negative disables limiting.
	Interval time.Duration
}

// New creates a new Limiter with a full bucket.
func New(cfg Config) *Limiter {
	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Interval returns the configured refill interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until a token is available, respecting the context.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(waited)
	}
	return nil
}
