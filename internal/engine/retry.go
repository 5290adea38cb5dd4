// Package engine implements the control plane's phase lifecycle: the retry
// harness (C5), the generic phase runner (C6), the five phases (C7-C11),
// and the stale-lock sweeper (C12).
package engine

import (
	"context"
	"math/rand"
	"time"

	apperrors "github.com/dataorch/pipeliner/pkg/errors"
)

// RetryOptions configures the retry harness (§4.5).
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	Jitter      bool
}

// DefaultRetryOptions matches §6's configuration defaults.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts: 3,
		BaseDelay:   4 * time.Second,
		Multiplier:  2,
	}
}

// Retry wraps an adapter call with bounded retries and exponential backoff.
// The last error is re-raised, wrapped as AdapterTransientError, after
// exhaustion.
func Retry(ctx context.Context, opts RetryOptions, adapter string, call func(ctx context.Context) error) error {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := opts.BaseDelay
	if delay <= 0 {
		delay = 4 * time.Second
	}
	multiplier := opts.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = call(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		wait := delay
		if opts.Jitter {
			wait += time.Duration(rand.Int63n(int64(delay) + 1)) //nolint:gosec
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay = time.Duration(float64(delay) * multiplier)
	}

	return apperrors.NewAdapterTransientError(adapter, attempts, lastErr)
}
