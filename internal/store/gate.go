package store

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"unit-telemetry-backend/internal/apperr"
)

// DefaultAcquireTimeout applies when Options.AcquireTimeout is zero.
const DefaultAcquireTimeout = 2 * time.Second

// gate admits at most size concurrent operations. Waiters give up after
// timeout instead of queueing behind a saturated pool.
type gate struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func newGate(size int64, timeout time.Duration) *gate {
	if size <= 0 {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}
	return &gate{sem: semaphore.NewWeighted(size), timeout: timeout}
}

// acquire takes one slot and returns the func that gives it back. A nil gate
// admits everything.
func (g *gate) acquire(ctx context.Context, op string) (func(), error) {
	if g == nil {
		return func() {}, nil
	}
	if g.sem.TryAcquire(1) {
		return g.release, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.sem.Acquire(waitCtx, 1); err != nil {
		return nil, apperr.Unavailable(op, "connection pool saturated", err)
	}
	return g.release, nil
}

func (g *gate) release() { g.sem.Release(1) }
