package extract_test

import (
	"context"
	"testing"
	"time"

	"github.com/rshade/billingfocus/extract"
	"github.com/rshade/billingfocus/pipelineerr"
)

func TestBackoffPolicy_Do_HonorsRetryAfterFloor(t *testing.T) {
	t.Parallel()

	policy := extract.BackoffPolicy{BaseDelay: time.Millisecond, Factor: 2, MaxAttempts: 2}
	retryAfter := 200 * time.Millisecond

	attempts := 0
	start := time.Now()
	err := policy.Do(context.Background(), func(error) bool { return true }, func(context.Context) error {
		attempts++
		if attempts == 1 {
			return pipelineerr.New(pipelineerr.SourceTransient, "extract", "throttled").WithRetryAfter(retryAfter)
		}
		return nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if elapsed < retryAfter {
		t.Errorf("elapsed = %v, want at least RetryAfter (%v) despite a tiny BaseDelay", elapsed, retryAfter)
	}
}

func TestBackoffPolicy_Do_StopsOnNonTransient(t *testing.T) {
	t.Parallel()

	policy := extract.BackoffPolicy{BaseDelay: time.Millisecond, Factor: 2, MaxAttempts: 5}
	attempts := 0
	wantErr := pipelineerr.New(pipelineerr.SourceFailed, "extract", "fatal")

	err := policy.Do(context.Background(), func(error) bool { return false }, func(context.Context) error {
		attempts++
		return wantErr
	})

	if err != wantErr {
		t.Fatalf("Do() error = %v, want %v", err, wantErr)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (non-transient must not retry)", attempts)
	}
}
