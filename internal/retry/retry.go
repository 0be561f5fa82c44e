// Package retry provides the bounded-retry wrapper used for storage calls.
// The AI provider keeps its own backoff loop; this helper covers transient
// HTTP failures against the news API and database.
package retry

import (
	"context"
	"fmt"
	"time"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	// Multiplier scales the delay after each failed attempt. Values <= 1
	// mean a fixed delay.
	Multiplier float64
}

// Transient marks errors worth retrying. Anything else aborts immediately.
type Transient interface {
	Transient() bool
}

// IsTransient reports whether err asks for another attempt.
func IsTransient(err error) bool {
	t, ok := err.(Transient)
	return ok && t.Transient()
}

// Do runs fn up to MaxAttempts times, sleeping between attempts. Permanent
// errors are returned as-is without further attempts.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	delay := cfg.Delay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if cfg.Multiplier > 1 {
			delay = time.Duration(float64(delay) * cfg.Multiplier)
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
