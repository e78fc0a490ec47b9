package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds the model call loop.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy allows 3 attempts with exponential backoff of 2s capped
// at 10s, retrying only malformed output.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    10 * time.Second,
		Retryable:   IsRetryable,
	}
}

// IsRetryable reports whether err is a content-shape failure worth
// re-prompting for.
func IsRetryable(err error) bool {
	var pe *ParseError
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	return errors.As(err, &pe) || errors.As(err, &se) || errors.As(err, &te)
}

// Retry runs op until it succeeds, returns a non-retryable error, or the
// policy's attempts are spent. onRetry, if set, is called before each wait.
// Attempts are strictly sequential.
func Retry[T any](ctx context.Context, p RetryPolicy, op func() (T, error), onRetry func(err error, next time.Duration)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	schedule := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.MaxDelay,
	}

	res, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(schedule),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			if onRetry != nil {
				onRetry(err, next)
			}
		}),
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return res, err
}
