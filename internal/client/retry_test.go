package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLookupPolicy(t *testing.T) {
	p := DefaultLookupPolicy()

	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
}

func TestRetryPolicy_StopsOnSuccess(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, Backoff: ExponentialBackoff(time.Microsecond)}

	calls := 0
	var retried []int
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	}, func(attempt int, err error) {
		retried = append(retried, attempt)
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{0}, retried)
}

func TestRetryPolicy_ReturnsLastError(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Backoff: ExponentialBackoff(time.Microsecond)}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("attempt failed")
	}, nil)

	assert.EqualError(t, err, "attempt failed")
	assert.Equal(t, 3, calls)
}

func TestNoRetry(t *testing.T) {
	calls := 0
	err := NoRetry().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("nope")
	}, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_CancelledWhileWaiting(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Backoff: func(int) time.Duration { return time.Hour }}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(ctx context.Context) error {
			calls++
			return errors.New("down")
		}, func(int, error) { cancel() })
	}()

	select {
	case err := <-done:
		assert.EqualError(t, err, "down")
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not stop on cancellation")
	}
}
