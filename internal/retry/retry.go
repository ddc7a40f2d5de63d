// Package retry repeats transient API failures with capped exponential
// backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Config describes one retry policy.
type Config struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps every delay. Zero means uncapped.
	MaxBackoff time.Duration
	// Multiplier grows the delay after each retry. Values below 1 keep it flat.
	Multiplier float64
	// JitterFraction spreads each delay by up to +/- this fraction.
	JitterFraction float64
	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig suits an interactive command: a handful of quick retries
// rather than a long wait.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.2,
	}
}

// Backoff returns the delay before retry number attempt (1-based), without
// jitter.
func (c Config) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := max(c.Multiplier, 1)
	d := time.Duration(float64(c.InitialBackoff) * math.Pow(mult, float64(attempt-1)))
	if c.MaxBackoff > 0 && (d > c.MaxBackoff || d < 0) {
		d = c.MaxBackoff
	}
	return d
}

func (c Config) delay(attempt int) time.Duration {
	d := c.Backoff(attempt)
	if c.JitterFraction > 0 {
		spread := float64(d) * c.JitterFraction
		d += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	if c.MaxBackoff > 0 && d > c.MaxBackoff {
		d = c.MaxBackoff
	}
	return max(d, 0)
}

// Classifier reports whether err is worth another attempt.
type Classifier func(error) bool

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as final under the default classifier.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable is the default classifier. Context errors and errors marked
// with Permanent are final; everything else is retried.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perm *permanentError
	return !errors.As(err, &perm)
}

// Do calls fn until it succeeds, returns a final error, or the retries run
// out. In the last case the error is a *RetryableError wrapping the final
// failure. A nil classifier means IsRetryable.
func Do(ctx context.Context, cfg Config, classify Classifier, fn func(context.Context) error) error {
	if classify == nil {
		classify = IsRetryable
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !classify(err) {
			return err
		}
		if attempt >= cfg.MaxRetries {
			return &RetryableError{Err: err, Retries: cfg.MaxRetries}
		}

		wait := cfg.delay(attempt + 1)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, wait, err)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RetryableError is returned once retries are exhausted.
type RetryableError struct {
	Err     error
	Retries int
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("gave up after %d retries: %v", e.Retries, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }
