package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionError is the base interface for all claudemol errors.
type SessionError interface {
	error
	IsSessionError() bool
}

// Compile-time verification that all error types implement SessionError.
var (
	_ SessionError = (*ConnectionError)(nil)
	_ SessionError = (*TimeoutError)(nil)
	_ SessionError = (*CommandError)(nil)
	_ SessionError = (*NotInstalledError)(nil)
	_ SessionError = (*PluginMissingError)(nil)
	_ SessionError = (*StartupCrashError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrConnectionClosed indicates the peer closed the socket mid-exchange.
	ErrConnectionClosed = errors.New("connection closed by peer")

	// ErrNotConnected indicates an operation that requires an open socket was
	// attempted on a disconnected connection.
	ErrNotConnected = errors.New("not connected")

	// ErrExhaustedRetries indicates every connection attempt in the retry
	// budget failed.
	ErrExhaustedRetries = errors.New("exhausted retries")

	// ErrFrameAmbiguous indicates the peer sent bytes beyond a complete
	// response document. The connection cannot be resynchronized.
	ErrFrameAmbiguous = errors.New("ambiguous frame: trailing data after response")

	// ErrSessionClosed indicates the registry was shut down.
	ErrSessionClosed = errors.New("session registry closed")
)

// ConnectionError indicates a transport-level failure talking to the listener.
// These are potentially transient and are retried within bounded budgets.
type ConnectionError struct {
	Endpoint string
	Reason   string
	Err      error
}

func (e *ConnectionError) Error() string {
	var b strings.Builder

	b.WriteString("connection error")

	if e.Endpoint != "" {
		b.WriteString(" (")
		b.WriteString(e.Endpoint)
		b.WriteString(")")
	}

	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsSessionError implements SessionError.
func (e *ConnectionError) IsSessionError() bool { return true }

// TimeoutError indicates a deadline elapsed on connect, read or launch-wait.
type TimeoutError struct {
	Op       string
	Endpoint string
	After    time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s timed out", e.Op)
	if e.Endpoint != "" {
		msg += " (" + e.Endpoint + ")"
	}

	if e.After > 0 {
		msg += fmt.Sprintf(" after %s", e.After)
	}

	return msg
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Timeout reports true, matching the net.Error convention.
func (e *TimeoutError) Timeout() bool { return true }

// IsSessionError implements SessionError.
func (e *TimeoutError) IsSessionError() bool { return true }

// CommandError indicates the child application executed the command and
// reported a failure. It is never retried.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string {
	return "command failed: " + e.Message
}

// IsSessionError implements SessionError.
func (e *CommandError) IsSessionError() bool { return true }

// NotInstalledError indicates no runnable application could be discovered.
type NotInstalledError struct {
	SearchedPaths []string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("application not found in: %v", e.SearchedPaths)
}

// IsSessionError implements SessionError.
func (e *NotInstalledError) IsSessionError() bool { return true }

// PluginMissingError indicates the listener bootstrap script could not be located.
type PluginMissingError struct {
	Path string
}

func (e *PluginMissingError) Error() string {
	if e.Path == "" {
		return "listener plugin not found"
	}

	return "listener plugin not found: " + e.Path
}

// IsSessionError implements SessionError.
func (e *PluginMissingError) IsSessionError() bool { return true }

// StartupCrashError indicates the launched process exited before its
// listener became reachable.
type StartupCrashError struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *StartupCrashError) Error() string {
	return fmt.Sprintf("application exited during startup (exit %d)\nstdout: %s\nstderr: %s",
		e.ExitCode, e.Stdout, e.Stderr)
}

func (e *StartupCrashError) Unwrap() error {
	return e.Err
}

// IsSessionError implements SessionError.
func (e *StartupCrashError) IsSessionError() bool { return true }

// IsRetryable reports whether err is a ConnectionError, the only class the
// connection retry loop repeats.
func IsRetryable(err error) bool {
	_, ok := errors.AsType[*ConnectionError](err)

	return ok
}

// IsConnectionClass reports whether err is a ConnectionError or TimeoutError.
// Sessions with auto-recovery enabled recover from exactly this set.
func IsConnectionClass(err error) bool {
	if IsRetryable(err) {
		return true
	}

	_, ok := errors.AsType[*TimeoutError](err)

	return ok
}
