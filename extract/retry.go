package extract

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rshade/billingfocus/pipelineerr"
)

// BackoffPolicy is a bounded exponential backoff with jitter, shared by
// the concrete extractors for retrying transient source failures.
type BackoffPolicy struct {
	BaseDelay  time.Duration
	Factor     float64
	MaxAttempts int
}

// DefaultBackoff is base 1s, factor 2, max 3 attempts, per spec.md §4.4.
var DefaultBackoff = BackoffPolicy{BaseDelay: time.Second, Factor: 2, MaxAttempts: 3}

// Do calls fn up to p.MaxAttempts times, sleeping a jittered exponential
// backoff between attempts. isTransient classifies an attempt's error as
// worth retrying; a non-transient error returns immediately. If a failed
// attempt's error carries a *pipelineerr.Error.RetryAfter (e.g. parsed
// from an HTTP Retry-After header), that value floors the next sleep
// instead of the computed jittered delay. Do returns the last error if
// every attempt fails, or nil on the first success.
func (p BackoffPolicy) Do(ctx context.Context, isTransient func(error) bool, fn func(ctx context.Context) error) error {
	max := p.MaxAttempts
	if max <= 0 {
		max = 1
	}

	var lastErr error
	delay := p.BaseDelay
	var retryAfter time.Duration
	for attempt := 0; attempt < max; attempt++ {
		if attempt > 0 {
			wait := delay + time.Duration(rand.Int63n(int64(delay)/2+1)) //nolint:gosec // jitter, not security sensitive
			if retryAfter > wait {
				wait = retryAfter
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			delay = time.Duration(float64(delay) * p.Factor)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		retryAfter = retryAfterOf(lastErr)
	}
	return lastErr
}

// retryAfterOf extracts a server-suggested retry delay from err, or zero
// if err isn't a *pipelineerr.Error or carries none.
func retryAfterOf(err error) time.Duration {
	var pErr *pipelineerr.Error
	if errors.As(err, &pErr) {
		return pErr.RetryAfter
	}
	return 0
}
