// Package poll provides context-aware sleeping and fixed-interval polling.
package poll

import (
	"context"
	"time"
)

// Sleep pauses for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ErrDeadline is returned by Until when the timeout elapses before fn
// reports done.
type ErrDeadline struct {
	After time.Duration
	Last  error
}

func (e *ErrDeadline) Error() string {
	return "deadline exceeded after " + e.After.String()
}

func (e *ErrDeadline) Unwrap() error {
	return e.Last
}

// Until calls fn every interval until it reports done, returns an error, the
// timeout elapses or ctx is done. fn is always called at least once. The
// error fn returns alongside done=false is kept as the last failure and
// attached to the ErrDeadline; an error with done=true stops polling and is
// returned as is.
func Until(
	ctx context.Context,
	timeout, interval time.Duration,
	fn func(ctx context.Context) (done bool, err error),
) error {
	deadline := time.Now().Add(timeout)

	var last error

	for {
		done, err := fn(ctx)
		if done {
			return err
		}

		last = err

		if time.Now().Add(interval).After(deadline) {
			return &ErrDeadline{After: timeout, Last: last}
		}

		if err := Sleep(ctx, interval); err != nil {
			return err
		}
	}
}
