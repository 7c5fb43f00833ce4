package app

import (
	"context"
	"time"
)

// Retry calls fn up to attempts times with exponential backoff, honoring
// context cancellation between attempts.
func Retry(ctx context.Context, attempts int, initialBackoff time.Duration, fn func() error) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			return err
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
