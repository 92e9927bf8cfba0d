package payments

import (
	"context"
	"time"
)

// retryWithBackoff runs fn up to maxAttempts times, sleeping delay(attempt)
// between failures. It blocks the caller on purpose: the webhook handler is
// already latency-bounded by the gateway's timeout window, so a job queue
// would be overkill for a worst case of a few hundred milliseconds.
func retryWithBackoff(ctx context.Context, maxAttempts int, delay func(attempt int) time.Duration, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// linearDelay scales a fixed base delay by the attempt index, mirroring the
// gateway's own propagation lag of tens to hundreds of milliseconds.
func linearDelay(base time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}
