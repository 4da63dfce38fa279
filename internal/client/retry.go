package client

import (
	"context"
	"time"
)

// RetryPolicy bounds how often an operation is attempted and how long to wait between attempts.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the pause after the given failed attempt (0-based).
	Backoff func(attempt int) time.Duration
}

// ExponentialBackoff doubles the pause after every failed attempt: base, 2*base, 4*base...
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base << attempt
	}
}

// DefaultLookupPolicy retries read-only lookups twice, waiting 1s then 2s.
func DefaultLookupPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(time.Second),
	}
}

// NoRetry attempts the operation exactly once.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// Do runs op until it succeeds or the attempts are exhausted, returning the last error.
// onRetry, when set, is called before every pause.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	attempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == attempts-1 {
			break
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}
