package pipeline

import (
	"context"
	"math/rand/v2"
	"time"
)

const maxBackoff = 30 * time.Second

// Backoff returns the delay before attempt n (0-indexed) with jitter.
func Backoff(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	delay := base << uint(attempt)
	if delay > maxBackoff || delay <= 0 {
		delay = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(delay) / 2))
	return delay + jitter
}

// Retry invokes fn up to maxAttempts times, sleeping with exponential
// backoff between attempts. It returns the last value alongside the last
// error, so callers keep the final failed attempt's details.
func Retry[T any](ctx context.Context, maxAttempts int, base time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var last T
	var lastErr error
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(Backoff(attempt-1, base)):
			}
		}
		last, lastErr = fn(ctx)
		if lastErr == nil {
			return last, nil
		}
	}
	return last, lastErr
}
