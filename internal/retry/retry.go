// Package retry re-runs a failing operation a bounded number of times.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxRetries gives four attempts in total.
const DefaultMaxRetries = 3

// Policy bounds how often and how fast an operation is retried.
type Policy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries uint64
	// NewBackOff builds the delay schedule for one Do call. Nil waits
	// 1s, 2s, 4s and so on between attempts.
	NewBackOff func() backoff.BackOff
}

// Default returns the policy used for recipe pages.
func Default() Policy {
	return Policy{MaxRetries: DefaultMaxRetries}
}

// Immediate returns a policy that retries without waiting.
func Immediate(maxRetries uint64) Policy {
	return Policy{
		MaxRetries: maxRetries,
		NewBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}
}

// Operation is one attempt. attempt starts at 1.
type Operation[R any] func(ctx context.Context, attempt int) (R, error)

// Notify is called after a failed attempt that will be retried.
type Notify func(err error, attempt int, wait time.Duration)

// Do runs op until it succeeds, returns a *backoff.PermanentError, ctx ends,
// or the retries are used up. The last error is returned on failure.
func Do[R any](ctx context.Context, p Policy, op Operation[R], notify Notify) (R, error) {
	attempt := 0
	wrapped := func() (R, error) {
		attempt++
		return op(ctx, attempt)
	}
	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			notify(err, attempt, wait)
		}
	}
	b := backoff.WithContext(backoff.WithMaxRetries(p.backOff(), p.MaxRetries), ctx)
	return backoff.RetryNotifyWithData(wrapped, b, onRetry)
}

func (p Policy) backOff() backoff.BackOff {
	if p.NewBackOff != nil {
		return p.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return b
}
