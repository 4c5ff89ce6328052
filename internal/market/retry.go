package market

import (
	"context"
	"fmt"
	"log"
)

// WithRetries runs op up to maxAttempts times and returns the first success.
// Attempt failures are logged and retried immediately; the final failure is
// returned wrapped with the attempt count.
func WithRetries[T any](ctx context.Context, maxAttempts int, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		log.Printf("[market] %s attempt %d/%d failed: %v", name, attempt, maxAttempts, err)
	}
	return zero, fmt.Errorf("%s failed after %d attempts: %w", name, maxAttempts, lastErr)
}
