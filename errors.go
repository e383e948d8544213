package claudemol

import "github.com/wagiedev/claudemol-go/internal/errors"

// Re-export error types from internal package

// ConnectionError indicates a transport-level failure. It is retried.
type ConnectionError = errors.ConnectionError

// TimeoutError indicates a connect, receive, launch or start deadline elapsed.
type TimeoutError = errors.TimeoutError

// CommandError indicates the application executed the command and reported
// a failure.
type CommandError = errors.CommandError

// NotInstalledError indicates no runnable application was found.
type NotInstalledError = errors.NotInstalledError

// PluginMissingError indicates the listener plugin could not be located.
type PluginMissingError = errors.PluginMissingError

// StartupCrashError indicates the launched application exited during startup.
type StartupCrashError = errors.StartupCrashError

// SessionError is the marker interface implemented by all session errors.
type SessionError = errors.SessionError

// Re-export sentinel errors from internal package.
var (
	// ErrConnectionClosed indicates the peer closed the socket mid-receive.
	ErrConnectionClosed = errors.ErrConnectionClosed

	// ErrNotConnected indicates a command was sent without a connection.
	ErrNotConnected = errors.ErrNotConnected

	// ErrExhaustedRetries indicates every execute attempt failed to connect.
	ErrExhaustedRetries = errors.ErrExhaustedRetries

	// ErrFrameAmbiguous indicates bytes followed a complete response document.
	ErrFrameAmbiguous = errors.ErrFrameAmbiguous

	// ErrSessionClosed indicates the registry has been shut down.
	ErrSessionClosed = errors.ErrSessionClosed
)

// IsConnectionClass reports whether err is a ConnectionError or
// TimeoutError, the failures Execute recovers from.
func IsConnectionClass(err error) bool {
	return errors.IsConnectionClass(err)
}
