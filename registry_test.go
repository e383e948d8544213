package claudemol

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/claudemol-go/internal/netutil"
)

func TestRegistry_GetOrCreateReturnsSameSession(t *testing.T) {
	r := NewRegistry()

	a, err := r.GetOrCreate(WithEndpoint("127.0.0.1", 9001))
	require.NoError(t, err)

	b, err := r.GetOrCreate(WithEndpoint("127.0.0.1", 9001))
	require.NoError(t, err)

	c, err := r.GetOrCreate(WithEndpoint("127.0.0.1", 9002))
	require.NoError(t, err)

	require.Same(t, a, b)
	require.NotSame(t, a, c)
	require.Equal(t, 2, r.Len())
}

func TestRegistry_ConcurrentGetOrCreate(t *testing.T) {
	r := NewRegistry(WithEndpoint("127.0.0.1", 9003))

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []Session
	)

	for range 16 {
		wg.Go(func() {
			s, err := r.GetOrCreate()
			require.NoError(t, err)

			mu.Lock()
			got = append(got, s)
			mu.Unlock()
		})
	}

	wg.Wait()

	for _, s := range got {
		require.Same(t, got[0], s)
	}
}

func TestRegistry_EnsureRunningAttaches(t *testing.T) {
	r := NewRegistry(startListener(t)...)
	t.Cleanup(func() { _ = r.ShutdownAndClear(context.Background()) })

	s, err := r.EnsureRunning(context.Background())
	require.NoError(t, err)
	require.True(t, s.IsHealthy(context.Background()))

	again, err := r.EnsureRunning(context.Background())
	require.NoError(t, err)
	require.Same(t, s, again)
}

func TestRegistry_EnsureRunningStartFailure(t *testing.T) {
	port, err := netutil.FreePort()
	require.NoError(t, err)

	r := NewRegistry(noLaunchOptions(t, port)...)

	_, err = r.EnsureRunning(context.Background())

	require.IsType(t, &PluginMissingError{}, err)
}

// TestRegistry_ShutdownAndClear tests that shutdown stops and forgets every session.
func TestRegistry_ShutdownAndClear(t *testing.T) {
	first := startListener(t)
	second := startListener(t)

	r := NewRegistry()

	a, err := r.EnsureRunning(context.Background(), first...)
	require.NoError(t, err)

	b, err := r.EnsureRunning(context.Background(), second...)
	require.NoError(t, err)

	require.NoError(t, r.ShutdownAndClear(context.Background()))

	require.Zero(t, r.Len())
	require.False(t, a.IsConnected())
	require.False(t, b.IsConnected())
	require.Equal(t, StateStopped, a.State())

	fresh, err := r.GetOrCreate(first...)
	require.NoError(t, err)
	require.NotSame(t, a, fresh)
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()

	_, err := r.GetOrCreate(WithEndpoint("127.0.0.1", 9004))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, r.Close(ctx))

	_, err = r.GetOrCreate()
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestDefaultRegistry_Singleton(t *testing.T) {
	require.Same(t, DefaultRegistry(), DefaultRegistry())
}
