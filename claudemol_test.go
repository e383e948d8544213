package claudemol

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/claudemol-go/internal/listener"
	"github.com/wagiedev/claudemol-go/internal/netutil"
)

// startListener runs an in-process listener and returns options targeting it.
// The command points nowhere so a test never launches anything by accident.
func startListener(t *testing.T, opts ...listener.Option) []Option {
	t.Helper()

	port, err := netutil.FreePort()
	require.NoError(t, err)

	srv := listener.New(net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), listener.EchoExecutor{}, opts...)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Close() })

	return noLaunchOptions(t, port)
}

func noLaunchOptions(t *testing.T, port int) []Option {
	t.Helper()

	dir := t.TempDir()

	return []Option{
		WithEndpoint("127.0.0.1", port),
		WithCommand(filepath.Join(dir, "no-such-application")),
		WithPluginPath(filepath.Join(dir, "plugin.py")),
		WithStartupRCPath(filepath.Join(dir, "rc")),
		WithAttachTimeout(200 * time.Millisecond),
		WithPortScavenger(nopScavenger{}),
	}
}

type nopScavenger struct{}

func (nopScavenger) Scavenge(context.Context, int) error { return nil }

func TestApplyOptions(t *testing.T) {
	var scavenger nopScavenger

	o := applyOptions([]Option{
		WithEndpoint("127.0.0.1", 9999),
		WithConnectTimeout(time.Second),
		WithReadTimeout(2 * time.Second),
		WithAttachTimeout(3 * time.Second),
		WithStartTimeout(4 * time.Second),
		WithPollInterval(5 * time.Millisecond),
		WithGracefulStopTimeout(6 * time.Second),
		WithRetryPolicy(5, 7*time.Millisecond),
		WithCommand("/opt/pymol", "-q"),
		WithPluginPath("/p.py"),
		WithStartupRCPath("/rc"),
		WithConfigPath("/c.json"),
		WithEnv(map[string]string{"A": "1"}),
		WithEnv(map[string]string{"B": "2"}),
		WithCanary("print('alive')", "alive"),
		WithPortScavenger(scavenger),
	})

	require.Equal(t, Endpoint{Host: "127.0.0.1", Port: 9999}, o.Endpoint)
	require.Equal(t, time.Second, o.ConnectTimeout)
	require.Equal(t, 2*time.Second, o.ReadTimeout)
	require.Equal(t, 3*time.Second, o.AttachTimeout)
	require.Equal(t, 4*time.Second, o.StartTimeout)
	require.Equal(t, 5*time.Millisecond, o.PollInterval)
	require.Equal(t, 6*time.Second, o.GracefulStopTimeout)
	require.Equal(t, 5, o.RetryAttempts)
	require.Equal(t, 7*time.Millisecond, o.RetryBackoff)
	require.Equal(t, []string{"/opt/pymol", "-q"}, o.Command)
	require.Equal(t, "/p.py", o.PluginPath)
	require.Equal(t, "/rc", o.StartupRCPath)
	require.Equal(t, "/c.json", o.ConfigPath)
	require.Equal(t, map[string]string{"A": "1", "B": "2"}, o.Env)
	require.Equal(t, Canary{Code: "print('alive')", Marker: "alive"}, o.Canary)
	require.Equal(t, scavenger, o.Scavenger)
}

func TestNewSession_AttachAndExecute(t *testing.T) {
	s := NewSession(startListener(t)...)
	t.Cleanup(func() { s.Stop(0) })

	require.Equal(t, StateIdle, s.State())
	require.NoError(t, s.Start(context.Background(), time.Second))
	require.Equal(t, StateReady, s.State())
	require.False(t, s.Owned())
	require.True(t, s.IsHealthy(context.Background()))

	out, err := s.Execute(context.Background(), "print('hello')", true)
	require.NoError(t, err)
	require.Equal(t, "hello\n", out)

	_, err = s.Execute(context.Background(), "raise NameError('cmd2')", true)

	cmdErr, ok := errors.AsType[*CommandError](err)
	require.True(t, ok)
	require.Equal(t, "cmd2", cmdErr.Message)
	require.False(t, IsConnectionClass(err))
}

func TestWithSession_StopsAfterCallback(t *testing.T) {
	var captured Session

	err := WithSession(context.Background(), func(s Session) error {
		captured = s

		out, err := s.Execute(context.Background(), "print('inside')", false)
		require.NoError(t, err)
		require.Equal(t, "inside\n", out)

		return nil
	}, startListener(t)...)

	require.NoError(t, err)
	require.False(t, captured.IsConnected())
	require.Equal(t, StateStopped, captured.State())
}

func TestWithSession_CallbackError(t *testing.T) {
	sentinel := errors.New("callback failed")

	err := WithSession(context.Background(), func(Session) error {
		return sentinel
	}, startListener(t)...)

	require.ErrorIs(t, err, sentinel)
}

func TestWithSession_StartFailure(t *testing.T) {
	port, err := netutil.FreePort()
	require.NoError(t, err)

	called := false

	err = WithSession(context.Background(), func(Session) error {
		called = true

		return nil
	}, noLaunchOptions(t, port)...)

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to start session")
	require.False(t, called)

	// The plugin is missing, so the launch is refused before spawning.
	_, ok := errors.AsType[*PluginMissingError](err)
	require.True(t, ok, "got %v", err)
}

func TestWithSession_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithSession(ctx, func(Session) error { return nil })

	require.ErrorIs(t, err, context.Canceled)
}

func TestDiscover_ExplicitCommand(t *testing.T) {
	res, ok := Discover(context.Background(), WithCommand("/opt/app"))

	require.True(t, ok)
	require.Equal(t, []string{"/opt/app"}, res.Prefix)
}

func TestConnectOrLaunch_Attaches(t *testing.T) {
	conn, proc, err := ConnectOrLaunch(context.Background(), "", startListener(t)...)
	require.NoError(t, err)
	require.Nil(t, proc)

	t.Cleanup(conn.Disconnect)

	out, err := conn.Execute(context.Background(), "print('direct')")
	require.NoError(t, err)
	require.Equal(t, "direct\n", out)
}

func TestNewConnection(t *testing.T) {
	opts := startListener(t)
	conn := NewConnection(opts...)
	t.Cleanup(conn.Disconnect)

	require.False(t, conn.IsConnected())
	require.NoError(t, conn.Connect(context.Background(), time.Second))
	require.True(t, conn.IsConnected())
}
