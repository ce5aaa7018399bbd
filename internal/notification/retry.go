package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultRetryAttempts is the number of delivery attempts made before giving up
	DefaultRetryAttempts = 3
	// DefaultRetryDelay is the fixed pause between attempts
	DefaultRetryDelay = 5 * time.Second
)

// RetryPolicy is a fixed-count, fixed-delay retry. There is no backoff and no jitter.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy returns the 3 attempts / 5 seconds policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: DefaultRetryAttempts,
		Delay:    DefaultRetryDelay,
	}
}

// Do runs op until it succeeds, returns an error that retryable rejects, or the attempts run out.
// It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, logger *logrus.Entry, retryable func(error) bool, op func(attempt int) error) (int, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && p.Delay > 0 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return attempt - 1, fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
			}
		}

		attemptLogger := logger.WithFields(logrus.Fields{
			"attempt":      attempt,
			"max_attempts": attempts,
		})
		attemptLogger.Debug("Attempting delivery")

		err := op(attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if !retryable(err) {
			attemptLogger.WithError(err).Error("Delivery attempt failed with a non-retryable error")
			return attempt, err
		}

		attemptLogger.WithError(err).Warn("Delivery attempt failed")
	}

	logger.WithField("attempts", attempts).WithError(lastErr).Error("All delivery attempts failed")
	return attempts, lastErr
}
