package util

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExecuteWithRetry calls fn up to maxAttempts times, sleeping between
// failures with an exponentially doubling delay. The final failure's
// error is returned unchanged. No jitter, no circuit breaker.
func ExecuteWithRetry(ctx context.Context, fn func() error, maxAttempts int, initialDelay time.Duration) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := initialDelay
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		GetLogger().Warn("Retryable operation failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
