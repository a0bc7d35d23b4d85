package fetch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryPolicy retries a request while the response status is one of Codes.
// Transport errors are never retried.
type RetryPolicy struct {
	Codes      map[int]bool
	MaxRetries int
	BackoffMin time.Duration
	BackoffMax time.Duration
}

func NewRetryPolicy(codes []int, maxRetries int, backoffMin, backoffMax time.Duration) RetryPolicy {
	set := make(map[int]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return RetryPolicy{Codes: set, MaxRetries: maxRetries, BackoffMin: backoffMin, BackoffMax: backoffMax}
}

// Jitter picks a wait in [low, high].
type Jitter func(low, high time.Duration) time.Duration

func UniformJitter(low, high time.Duration) time.Duration {
	if high <= low {
		return low
	}
	return low + rand.N(high-low+1)
}

var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetriesExhaustedError is returned when every attempt got a retryable status.
// It counts as a timeout.
type RetriesExhaustedError struct {
	URL        string
	MaxRetries int
	Status     int
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("failed to fetch %s after %d retries, response code: %d", e.URL, e.MaxRetries, e.Status)
}

func (e *RetriesExhaustedError) Timeout() bool { return true }

func (e *RetriesExhaustedError) Retries() int { return e.MaxRetries }

func (e *RetriesExhaustedError) LastStatus() int { return e.Status }
