package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSleep_Elapses(t *testing.T) {
	start := time.Now()

	require.NoError(t, Sleep(context.Background(), 20*time.Millisecond))
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestUntil_SucceedsAfterRetries(t *testing.T) {
	calls := 0

	err := Until(context.Background(), time.Second, time.Millisecond, func(context.Context) (bool, error) {
		calls++

		return calls == 3, nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestUntil_StopsOnTerminalError(t *testing.T) {
	boom := errors.New("boom")

	err := Until(context.Background(), time.Second, time.Millisecond, func(context.Context) (bool, error) {
		return true, boom
	})

	require.ErrorIs(t, err, boom)
}

func TestUntil_DeadlineKeepsLastError(t *testing.T) {
	refused := errors.New("connection refused")

	err := Until(context.Background(), 30*time.Millisecond, 10*time.Millisecond, func(context.Context) (bool, error) {
		return false, refused
	})

	deadlineErr, ok := errors.AsType[*ErrDeadline](err)
	require.True(t, ok)
	require.Equal(t, 30*time.Millisecond, deadlineErr.After)
	require.ErrorIs(t, err, refused)
}

func TestUntil_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Until(ctx, time.Hour, 5*time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
}
