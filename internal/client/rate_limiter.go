package client

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrLimiterStopped = errors.New("rate limiter stopped")

// RateLimiter controls request rate
type RateLimiter struct {
	ticker   *time.Ticker
	requests chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter with specified rate.
// The first request is admitted immediately.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	interval := time.Duration(float64(time.Second) / requestsPerSecond)

	rl := &RateLimiter{
		ticker:   time.NewTicker(interval),
		requests: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	rl.requests <- struct{}{}

	go func() {
		for {
			select {
			case <-rl.ticker.C:
				select {
				case rl.requests <- struct{}{}:
				default:
				}
			case <-rl.done:
				return
			}
		}
	}()

	return rl
}

// Wait blocks until rate limit allows next request
func (rl *RateLimiter) Wait(ctx context.Context) error {
	select {
	case <-rl.requests:
		return nil
	case <-rl.done:
		return ErrLimiterStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop stops the rate limiter; safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.ticker.Stop()
		close(rl.done)
	})
}
