// Package pacing spaces and retries outbound calls. Every upstream client
// shares the same two primitives: a minimum-interval limiter and an
// exponential-backoff retry wrapper.
package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between consecutive calls. Wait blocks
// the caller for the remainder of the interval since the previous call.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter with the given minimum spacing. A burst of 1
// means the first call proceeds immediately and every subsequent call waits
// out the full interval.
func NewLimiter(minInterval time.Duration) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Wait blocks until the minimum interval since the previous permitted call
// has elapsed, or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
