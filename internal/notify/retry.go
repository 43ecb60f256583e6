package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wanwatcher/internal/types"
)

const maxAttempts = 3

// retrier runs delivery attempts with bounded exponential backoff.
// The delay before attempt n is 2^(n-2) seconds, so attempt 2 waits 1s
// and attempt 3 waits 2s. Exhaustion is recorded and logged, never raised.
type retrier struct {
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetrier() *retrier {
	return &retrier{sleep: sleepContext}
}

// backoffDelay returns the delay that precedes the given attempt number.
func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return time.Second << (attempt - 2)
}

// run executes fn up to maxAttempts times and records every attempt.
// The logger is scoped by the caller so attempt and exhaustion lines
// correlate with the event being delivered.
func (r *retrier) run(ctx context.Context, logger *zap.Logger, provider string, fn func(context.Context) error) types.NotificationResult {
	result := types.NotificationResult{
		Provider:    provider,
		FinalStatus: types.StatusExhausted,
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		delay := backoffDelay(attempt)
		if delay > 0 {
			if err := r.sleep(ctx, delay); err != nil {
				result.Attempts = append(result.Attempts, types.Attempt{
					Number: attempt,
					Delay:  delay,
					Error:  err.Error(),
				})
				break
			}
		}

		err := fn(ctx)
		a := types.Attempt{
			Number: attempt,
			OK:     err == nil,
			Delay:  delay,
		}
		if err != nil {
			a.Error = err.Error()
		}
		result.Attempts = append(result.Attempts, a)

		if err == nil {
			result.FinalStatus = types.StatusSuccess
			return result
		}

		logger.Warn("Notification attempt failed",
			zap.String("provider", provider),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	logger.Error("Notification delivery exhausted",
		zap.String("provider", provider),
		zap.Int("attempts", len(result.Attempts)))

	return result
}

// sleepContext waits for the given duration or until the context ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
