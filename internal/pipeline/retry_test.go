package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	got, err := Retry(context.Background(), 5, time.Millisecond, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", fmt.Errorf("transient failure %d", attempts)
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "done" || attempts != 3 {
		t.Errorf("expected success on attempt 3, got %q after %d attempts", got, attempts)
	}
}

func TestRetry_ExhaustionReturnsLastValue(t *testing.T) {
	attempts := 0
	got, err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) (int, error) {
		attempts++
		return attempts, fmt.Errorf("always failing")
	})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if got != 3 {
		t.Errorf("expected last attempt's value, got %d", got)
	}
}

func TestRetry_FirstAttemptImmediate(t *testing.T) {
	start := time.Now()
	_, err := Retry(context.Background(), 1, time.Minute, func(ctx context.Context) (bool, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("expected no backoff before the first attempt")
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := Retry(ctx, 5, time.Hour, func(ctx context.Context) (bool, error) {
		attempts++
		return false, fmt.Errorf("failing")
	})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if attempts != 1 {
		t.Errorf("expected the backoff wait to observe cancellation, got %d attempts", attempts)
	}
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	for attempt := 0; attempt < 20; attempt++ {
		d := Backoff(attempt, time.Second)
		if d < time.Second {
			t.Errorf("attempt %d: backoff %v below base", attempt, d)
		}
		if d > maxBackoff+maxBackoff/2 {
			t.Errorf("attempt %d: backoff %v exceeds cap plus jitter", attempt, d)
		}
	}

	first := Backoff(0, time.Second)
	if first > 1500*time.Millisecond {
		t.Errorf("expected first backoff within base plus jitter, got %v", first)
	}
}
