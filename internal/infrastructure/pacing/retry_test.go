package pacing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/schemascope/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(time.Duration) {}

func TestRetry_SucceedsWithinBudget(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: noSleep}

	err := cfg.Do(context.Background(), "fetch", func() error {
		attempts++
		if attempts <= 2 {
			return fmt.Errorf("%w: upstream 503", domain.ErrFetchFailed)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: noSleep}

	err := cfg.Do(context.Background(), "fetch", func() error {
		attempts++
		return fmt.Errorf("%w: upstream 500", domain.ErrFetchFailed)
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetry_NonTransientNotRetried(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: noSleep}

	err := cfg.Do(context.Background(), "analyze", func() error {
		attempts++
		return fmt.Errorf("%w: got int", domain.ErrUnsupportedInput)
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, domain.ErrUnsupportedInput)
}

func TestRetry_BackoffDoubles(t *testing.T) {
	var delays []time.Duration
	cfg := RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep:       func(d time.Duration) { delays = append(delays, d) },
	}

	_ = cfg.Do(context.Background(), "fetch", func() error {
		return domain.ErrFetchFailed
	})

	require.Len(t, delays, 2)
	assert.Equal(t, time.Second, delays[0])
	assert.Equal(t, 2*time.Second, delays[1])
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: noSleep}
	err := cfg.Do(ctx, "fetch", func() error {
		attempts++
		return domain.ErrFetchFailed
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry_ZeroConfigDefaults(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{Sleep: noSleep}

	_ = cfg.Do(context.Background(), "fetch", func() error {
		attempts++
		return domain.ErrRateLimited
	})

	assert.Equal(t, 3, attempts)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"fetch failure", domain.ErrFetchFailed, true},
		{"rate limited", domain.ErrRateLimited, true},
		{"wrapped fetch failure", fmt.Errorf("competitor: %w", domain.ErrFetchFailed), true},
		{"unsupported input", domain.ErrUnsupportedInput, false},
		{"invalid credential", domain.ErrInvalidCredential, false},
		{"missing credential", domain.ErrMissingCredential, false},
		{"invalid request", domain.ErrInvalidRequest, false},
		{"not found", domain.ErrNotFound, false},
		{"wrapped not found", fmt.Errorf("%w: %w: status 404", domain.ErrFetchFailed, domain.ErrNotFound), false},
		{"unknown error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestLimiter_SpacesCalls(t *testing.T) {
	limiter := NewLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	require.NoError(t, limiter.Wait(ctx))
	elapsed := time.Since(start)

	// First call is immediate, second waits out the interval.
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

func TestLimiter_CancelledContext(t *testing.T) {
	limiter := NewLimiter(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	require.NoError(t, limiter.Wait(ctx))
	err := limiter.Wait(ctx)
	assert.Error(t, err)
}
