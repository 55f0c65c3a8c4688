// Package retry implements a bounded retry policy with exponential backoff
// and jitter, shared by outbound network calls.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/mapstalk/mapstalk/internal/types"
)

// Retryable is implemented by errors that know whether a retry is worthwhile.
type Retryable interface {
	IsRetryable() bool
}

// Policy bounds a retry loop: at most MaxAttempts calls, waiting
// BaseDelay*2^n (capped at MaxDelay, ±Jitter fraction) between them.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction of the delay, e.g. 0.25 for ±25%
}

// DefaultPolicy matches the pacing the generation endpoint tolerates.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 6,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Jitter:      0.25,
	}
}

// Do runs fn until it succeeds, exhausts MaxAttempts, hits a non-retryable
// error, or ctx is done. The last error is wrapped with ErrMaxAttempts when
// attempts run out.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.Backoff(attempt)
		// An explicit server hint (Retry-After) overrides the schedule.
		var apiErr *types.APIError
		if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > delay {
			delay = apiErr.RetryAfter
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return errors.Join(types.ErrMaxAttempts, lastErr)
}

// Backoff returns the delay before the given zero-based attempt's retry:
// exponential growth with jitter, capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		spread := float64(delay) * p.Jitter
		delay += time.Duration(rand.Float64()*2*spread - spread)
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// IsRetryable reports whether an error warrants another attempt. An error
// that implements Retryable decides for itself (a per-request timeout is
// retryable even though it unwraps to context.DeadlineExceeded); anything
// else, including plain context cancellation, does not retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return false
}
