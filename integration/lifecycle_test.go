//go:build integration && unix

package integration

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/claudemol-go"
)

// startSession starts a session against the real application, skipping the
// test when it is not installed.
func startSession(t *testing.T, ctx context.Context, opts ...claudemol.Option) claudemol.Session {
	t.Helper()

	s := claudemol.NewSession(opts...)

	if err := s.Start(ctx, 60*time.Second); err != nil {
		skipIfNotInstalled(t, err)
		t.Fatalf("Start failed: %v", err)
	}

	t.Cleanup(func() { s.Stop(0) })

	return s
}

func TestDiscover_FindsApplication(t *testing.T) {
	res, ok := claudemol.Discover(context.Background())
	if !ok {
		t.Skipf("application not installed (searched %v)", res.Searched)
	}

	require.NotEmpty(t, res.Prefix)
	require.NotEmpty(t, res.Source)
}

func TestSession_ExecuteRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s := startSession(t, ctx)

	require.Equal(t, claudemol.StateReady, s.State())
	require.True(t, s.IsHealthy(ctx))

	out, err := s.Execute(ctx, "print(1 + 1)", false)
	require.NoError(t, err)
	require.Equal(t, "2\n", out)

	out, err = s.Execute(ctx, "x = 1", false)
	require.NoError(t, err)
	require.Equal(t, "OK", out)
}

func TestSession_CommandErrorKeepsConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s := startSession(t, ctx)

	_, err := s.Execute(ctx, "raise ValueError('boom')", true)
	require.Error(t, err)

	cmdErr, ok := errors.AsType[*claudemol.CommandError](err)
	require.True(t, ok, "expected CommandError, got %T", err)
	require.Contains(t, cmdErr.Message, "boom")

	require.True(t, s.IsConnected())
	require.True(t, s.IsHealthy(ctx))
}

func TestSession_RecoverAfterKill(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	s := startSession(t, ctx)
	if !s.Owned() {
		t.Skip("an instance was already running; refusing to kill it")
	}

	pid := s.PID()
	require.NoError(t, syscall.Kill(pid, syscall.SIGKILL))

	require.Eventually(t, func() bool { return !s.IsRunning() }, 10*time.Second, 100*time.Millisecond)

	out, err := s.Execute(ctx, "print('after')", true)
	require.NoError(t, err)
	require.Equal(t, "after\n", out)
	require.True(t, s.Owned())
	require.NotEqual(t, pid, s.PID())
}

func TestSession_AttachedStopLeavesOwnerRunning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	owner := startSession(t, ctx)
	if !owner.Owned() {
		t.Skip("an instance was already running")
	}

	attached := claudemol.NewSession()
	require.NoError(t, attached.Start(ctx, 0))
	require.False(t, attached.Owned())

	attached.Stop(0)

	require.True(t, owner.IsRunning())
}

func TestRegistry_EnsureRunningShares(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	reg := claudemol.NewRegistry()

	s, err := reg.EnsureRunning(ctx)
	if err != nil {
		skipIfNotInstalled(t, err)
		t.Fatalf("EnsureRunning failed: %v", err)
	}

	again, err := reg.EnsureRunning(ctx)
	require.NoError(t, err)
	require.Same(t, s, again)

	require.NoError(t, reg.Close(ctx))
	require.Equal(t, 0, reg.Len())

	_, err = reg.GetOrCreate()
	require.ErrorIs(t, err, claudemol.ErrSessionClosed)
}
