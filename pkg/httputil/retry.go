package httputil

import (
	"context"
	"errors"
	"time"

	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
)

// RetryableError marks a transient failure (network error, 5xx, 429) that
// [Policy.Do] may attempt again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is wrapped with RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Policy controls retry attempts and backoff.
type Policy struct {
	Attempts int           // total tries, at least 1
	Delay    time.Duration // first backoff, doubled after each failure
	MaxDelay time.Duration // cap on a single backoff; 0 means no cap
}

// DefaultPolicy makes 3 attempts starting at one second.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second, MaxDelay: 10 * time.Second}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. A rate-limit error with a Retry-After value waits that
// long instead of the backoff delay. Cancelling ctx stops waiting and
// returns ctx.Err().
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		if lastErr = err; !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		wait := delay
		var rl *tcerrors.RateLimitedError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			wait = time.Duration(rl.RetryAfter) * time.Second
		}
		if p.MaxDelay > 0 && wait > p.MaxDelay {
			wait = p.MaxDelay
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return lastErr
}
