package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectionError(t *testing.T) {
	root := errors.New("connection refused")
	err := &ConnectionError{Endpoint: "localhost:9880", Reason: "cannot connect", Err: root}

	require.Equal(t, "connection error (localhost:9880): cannot connect: connection refused", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsSessionError())
}

func TestConnectionError_CauseOnly(t *testing.T) {
	err := &ConnectionError{Err: ErrExhaustedRetries}

	require.Equal(t, "connection error: exhausted retries", err.Error())
	require.ErrorIs(t, err, ErrExhaustedRetries)
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Op: "launch wait", Endpoint: "localhost:9880", After: 10 * time.Second}

	require.Equal(t, "launch wait timed out (localhost:9880) after 10s", err.Error())
	require.True(t, err.Timeout())
	require.True(t, err.IsSessionError())
	require.NoError(t, err.Unwrap())
}

func TestCommandError(t *testing.T) {
	err := &CommandError{Message: "name 'foo' is not defined"}

	require.Equal(t, "command failed: name 'foo' is not defined", err.Error())
	require.True(t, err.IsSessionError())
}

func TestNotInstalledError(t *testing.T) {
	err := &NotInstalledError{SearchedPaths: []string{"$PATH", "/usr/bin/pymol"}}

	require.Equal(t, "application not found in: [$PATH /usr/bin/pymol]", err.Error())
	require.True(t, err.IsSessionError())
}

func TestPluginMissingError(t *testing.T) {
	require.Equal(t, "listener plugin not found: /tmp/plugin.py",
		(&PluginMissingError{Path: "/tmp/plugin.py"}).Error())
	require.Equal(t, "listener plugin not found", (&PluginMissingError{}).Error())
}

func TestStartupCrashError(t *testing.T) {
	root := errors.New("exit status 3")
	err := &StartupCrashError{ExitCode: 3, Stdout: "booting", Stderr: "ImportError: pymol", Err: root}

	require.Contains(t, err.Error(), "exit 3")
	require.Contains(t, err.Error(), "stdout: booting")
	require.Contains(t, err.Error(), "stderr: ImportError: pymol")
	require.ErrorIs(t, err, root)
	require.True(t, err.IsSessionError())
}

func TestIsRetryable(t *testing.T) {
	connErr := &ConnectionError{Reason: "reset"}

	require.True(t, IsRetryable(connErr))
	require.True(t, IsRetryable(fmt.Errorf("send: %w", connErr)))
	require.False(t, IsRetryable(&TimeoutError{Op: "read"}))
	require.False(t, IsRetryable(&CommandError{Message: "boom"}))
	require.False(t, IsRetryable(nil))
}

func TestIsConnectionClass(t *testing.T) {
	require.True(t, IsConnectionClass(&ConnectionError{}))
	require.True(t, IsConnectionClass(fmt.Errorf("wrapped: %w", &TimeoutError{Op: "read"})))
	require.False(t, IsConnectionClass(&CommandError{Message: "boom"}))
	require.False(t, IsConnectionClass(&NotInstalledError{}))
	require.False(t, IsConnectionClass(errors.New("plain")))
}
