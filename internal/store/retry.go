package store

import (
	"context"
	"log"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"unit-telemetry-backend/internal/apperr"
)

// RetryPolicy controls Retry. Delay doubles after every failed attempt up to
// MaxDelay.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
	Clock    clock.Clock
}

// DefaultRetryPolicy is used for idempotent reads served over HTTP.
var DefaultRetryPolicy = RetryPolicy{
	Attempts: 3,
	Delay:    50 * time.Millisecond,
	MaxDelay: 500 * time.Millisecond,
}

// Retry calls fn until it succeeds, fails with an error that is not
// retryable, runs out of attempts, or ctx is done. Only StoreUnavailable is
// retried. The last error from fn is returned.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.Delay <= 0 {
		policy.Delay = DefaultRetryPolicy.Delay
	}
	clk := policy.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	var last error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			last = fn(ctx)
			return last
		},
		IsFatalError: func(err error) bool {
			return !apperr.IsRetryable(err)
		},
		NotifyFunc: func(err error, attempt int) {
			log.Printf("store retry: attempt %d failed: %v", attempt, err)
		},
		Attempts:    policy.Attempts,
		Delay:       policy.Delay,
		MaxDelay:    policy.MaxDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       clk,
		Stop:        ctx.Done(),
	})
	if err == nil {
		return nil
	}
	if last != nil {
		return last
	}
	return apperr.Classify("store.retry", err)
}
