package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Do runs fn, retrying failures that retryable classifies as transient,
// waiting the policy's backoff delay between attempts. Permanent failures
// return immediately; ctx cancellation cuts the backoff wait short and
// returns the last error.
func Do(ctx context.Context, policy Policy, retryable func(error) bool, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying after transient failure",
				slog.Int("attempt", attempt),
				slog.String("error", lastErr.Error()))
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == policy.MaxRetries {
			if attempt > 0 {
				return fmt.Errorf("failed after %d attempts: %w", attempt+1, err)
			}
			return err
		}

		timer := time.NewTimer(policy.Delay(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}
