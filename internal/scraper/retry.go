package scraper

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RetryPolicy retries with a fixed backoff between attempts.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func (p RetryPolicy) Do(ctx context.Context, logger *log.Logger, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if logger != nil {
			logger.Printf("retry op=%s attempt=%d/%d err=%v", op, i, attempts, lastErr)
		}
		if i == attempts {
			break
		}
		if p.Backoff > 0 {
			t := time.NewTimer(p.Backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrNavigation, op, attempts, lastErr)
}
