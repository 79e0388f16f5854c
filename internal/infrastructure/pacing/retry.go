package pacing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/schemascope/backend/internal/domain"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep is injectable for tests; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultRetry matches the service-wide policy: 3 attempts, backoff starting
// at one second and doubling per attempt.
func DefaultRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Second}
}

// Do executes fn with exponential back-off retry on transient failures.
// Non-transient errors (bad input, bad credentials) are returned immediately
// without further attempts. On exhaustion the final error is returned
// wrapped with the attempt count.
func (r RetryConfig) Do(ctx context.Context, operation string, fn func() error) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	delay := r.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt < maxAttempts {
			log.Printf("[retry] %s failed (attempt %d/%d): %v, retrying in %v",
				operation, attempt, maxAttempts, lastErr, delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, maxAttempts, lastErr)
}

// IsTransient reports whether an error is worth retrying: network failures,
// rate limiting, and upstream fetch errors (403/429/5xx map onto these).
// Malformed input, credential errors and 404s are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrUnsupportedInput) ||
		errors.Is(err, domain.ErrInvalidCredential) ||
		errors.Is(err, domain.ErrMissingCredential) ||
		errors.Is(err, domain.ErrInvalidRequest) ||
		errors.Is(err, domain.ErrNotFound) {
		return false
	}
	if errors.Is(err, domain.ErrFetchFailed) || errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
