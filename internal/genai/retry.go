// internal/genai/retry.go
package genai

import (
	"context"
	"time"
)

// RetryPolicy describes how a caller wraps its submissions. The dispatcher
// itself never retries; each stage owns its policy.
type RetryPolicy struct {
	Attempts   int
	BaseDelay  time.Duration
	Multiplier float64
}

// DefaultRetryPolicy matches the backend client defaults: two extra attempts
// with 100ms exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 2, BaseDelay: 100 * time.Millisecond, Multiplier: 2}
}

// NoRetry disables retries entirely.
func NoRetry() RetryPolicy {
	return RetryPolicy{}
}

// Do runs fn up to 1+Attempts times with exponential backoff between
// attempts. Context cancellation during a backoff wait stops retrying and
// returns the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) (*GenerationResponse, error)) (*GenerationResponse, error) {
	delay := p.BaseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 2
	}

	var lastErr error
	for attempt := 0; attempt <= p.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, lastErr
			}
			delay = time.Duration(float64(delay) * mult)
		}

		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, lastErr
		}
	}

	return nil, lastErr
}
