package fetch

import (
	"context"
	"time"
)

// RetryPolicy defines retry behavior for transport failures.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retry, 1 = one retry)
	MaxRetries int

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration

	// BackoffRatio multiplies the delay after each retry.
	// With InitialDelay=100ms and BackoffRatio=2.0 the delays are
	// 100ms, 200ms, 400ms, ... capped by MaxDelay.
	BackoffRatio float64
}

// DefaultRetryPolicy retries up to maxRetries times starting at 200ms.
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:   maxRetries,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		BackoffRatio: 2.0,
	}
}

// NoRetry returns a retry policy with no retries
func NoRetry() RetryPolicy {
	return RetryPolicy{BackoffRatio: 1.0}
}

// delay returns the wait before retry attempt (0-indexed).
func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.InitialDelay <= 0 {
		return 0
	}

	d := float64(p.InitialDelay)
	for i := 0; i < attempt; i++ {
		d *= p.BackoffRatio
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
