package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/claudemol-go/internal/config"
	"github.com/wagiedev/claudemol-go/internal/connection"
	cmerrors "github.com/wagiedev/claudemol-go/internal/errors"
	"github.com/wagiedev/claudemol-go/internal/launcher"
	"github.com/wagiedev/claudemol-go/internal/poll"
)

// State is the supervisor lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateAttaching  State = "attaching"
	StateLaunching  State = "launching"
	StateReady      State = "ready"
	StateRecovering State = "recovering"
	StateStopped    State = "stopped"
)

// Session supervises the connection to one application instance and, when
// it launched that instance, the process itself.
type Session struct {
	log       *slog.Logger
	opts      *config.Options
	conn      *connection.Connection
	launcher  *launcher.Launcher
	scavenger config.PortScavenger

	proc  *launcher.Process
	owned bool
	state State
}

// New creates an idle Session. Unset options take their defaults.
func New(options *config.Options) *Session {
	opts := options.Resolve()

	return newSession(opts, launcher.New(opts))
}

// NewWithLauncher creates an idle Session that launches through l.
func NewWithLauncher(options *config.Options, l *launcher.Launcher) *Session {
	return newSession(options.Resolve(), l)
}

func newSession(opts *config.Options, l *launcher.Launcher) *Session {
	scavenger := opts.Scavenger
	if scavenger == nil {
		scavenger = DefaultScavenger(opts.Logger)
	}

	return &Session{
		log:       opts.Logger.With("component", "session", "endpoint", opts.Endpoint.String()),
		opts:      opts,
		conn:      connection.New(opts),
		launcher:  l,
		scavenger: scavenger,
		state:     StateIdle,
	}
}

// Endpoint returns the endpoint this session targets.
func (s *Session) Endpoint() config.Endpoint {
	return s.opts.Endpoint
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Owned reports whether this session launched the process and is
// responsible for terminating it.
func (s *Session) Owned() bool {
	return s.owned
}

// IsRunning reports whether an owned process is alive.
func (s *Session) IsRunning() bool {
	return s.proc != nil && !s.proc.Exited()
}

// PID returns the owned process id, or 0 when there is none.
func (s *Session) PID() int {
	if s.proc == nil {
		return 0
	}

	return s.proc.PID()
}

// IsConnected probes the connection. A closed peer is detected here and
// leaves the session disconnected.
func (s *Session) IsConnected() bool {
	return s.conn.IsConnected()
}

// Start attaches to a listening instance or launches one and waits for it.
// A timeout <= 0 uses the configured start timeout. Start on a connected
// session is a no-op. An owned process that is alive but not listening is
// terminated before a new one is launched.
//
// Returns StartupCrashError if the launched process exits before its
// listener is reachable, and TimeoutError (after killing the process) if it
// never becomes reachable within timeout.
func (s *Session) Start(ctx context.Context, timeout time.Duration) error {
	if s.conn.IsConnected() {
		return nil
	}

	if timeout <= 0 {
		timeout = s.opts.StartTimeout
	}

	s.state = StateAttaching

	if err := s.conn.Connect(ctx, s.opts.AttachTimeout); err == nil {
		if !s.IsRunning() {
			s.proc = nil
			s.owned = false
		}

		s.state = StateReady
		s.log.Info("Attached to running instance", "owned", s.owned)

		return nil
	}

	if s.proc != nil {
		if !s.proc.Exited() {
			s.log.Warn("Owned process is not answering, terminating it", "pid", s.proc.PID())

			if err := s.proc.Terminate(s.opts.RecoverGrace, s.opts.ForceKillTimeout); err != nil {
				s.log.Warn("Failed to kill owned process", "pid", s.proc.PID(), "error", err)
			}
		}

		s.proc = nil
	}

	s.state = StateLaunching
	s.owned = true

	proc, err := s.launcher.Spawn(ctx, "")
	if err != nil {
		s.owned = false
		s.state = StateIdle

		return err
	}

	s.proc = proc

	err = poll.Until(ctx, timeout, s.opts.PollInterval, func(ctx context.Context) (bool, error) {
		connErr := s.conn.Connect(ctx, s.opts.ProbeTimeout)
		if connErr == nil {
			return true, nil
		}

		if proc.Exited() {
			stdout, stderr := proc.Output()

			return true, &cmerrors.StartupCrashError{
				ExitCode: proc.ExitCode(),
				Stdout:   strings.TrimSpace(stdout),
				Stderr:   strings.TrimSpace(stderr),
				Err:      proc.Err(),
			}
		}

		s.log.Debug("Waiting for listener", "error", connErr)

		return false, connErr
	})
	if err == nil {
		s.state = StateReady
		s.log.Info("Launched and connected", "pid", proc.PID())

		return nil
	}

	if deadline, ok := errors.AsType[*poll.ErrDeadline](err); ok {
		err = &cmerrors.TimeoutError{
			Op:       "start",
			Endpoint: s.opts.Endpoint.String(),
			After:    timeout,
			Err:      deadline.Last,
		}
	}

	if !proc.Exited() {
		if killErr := proc.Kill(s.opts.ForceKillTimeout); killErr != nil {
			s.log.Warn("Failed to kill orphaned process", "pid", proc.PID(), "error", killErr)
		}
	}

	s.log.Error("Start failed", "error", err)

	s.proc = nil
	s.owned = false
	s.state = StateIdle

	return err
}

// IsHealthy runs the canary command and reports whether its marker came
// back. Failures of any kind report false.
func (s *Session) IsHealthy(ctx context.Context) bool {
	if !s.conn.IsConnected() {
		return false
	}

	out, err := s.conn.Execute(ctx, s.opts.Canary.Code)
	if err != nil {
		s.log.Debug("Canary failed", "error", err)

		return false
	}

	return strings.Contains(out, s.opts.Canary.Marker)
}

// Stop disconnects and, only if the process is owned, terminates it: a
// graceful signal with gracefulTimeout (the configured default if <= 0),
// then a force kill. Process-control failures are logged and swallowed.
// Ownership is always cleared.
func (s *Session) Stop(gracefulTimeout time.Duration) {
	s.conn.Disconnect()

	if gracefulTimeout <= 0 {
		gracefulTimeout = s.opts.GracefulStopTimeout
	}

	if s.owned && s.proc != nil {
		pid := s.proc.PID()

		if err := s.proc.Terminate(gracefulTimeout, s.opts.ForceKillTimeout); err != nil {
			s.log.Warn("Failed to terminate process", "pid", pid, "error", err)
		} else {
			s.log.Info("Stopped owned process", "pid", pid)
		}
	}

	s.proc = nil
	s.owned = false
	s.state = StateStopped
}

// Recover tears everything down and starts again: it disconnects, kills an
// owned process, kills whatever else is listening on the endpoint's port,
// pauses for the port to be released and calls Start.
func (s *Session) Recover(ctx context.Context, timeout time.Duration) error {
	log := s.log.With("recovery_id", ulid.Make().String())
	log.Info("Recovering")

	s.state = StateRecovering
	s.conn.Disconnect()

	if s.owned && s.proc != nil {
		if err := s.proc.Terminate(s.opts.RecoverGrace, s.opts.ForceKillTimeout); err != nil {
			log.Warn("Failed to kill owned process", "pid", s.proc.PID(), "error", err)
		}
	}

	s.proc = nil
	s.owned = false

	if err := s.scavenger.Scavenge(ctx, s.opts.Endpoint.Port); err != nil {
		log.Debug("Port scavenging failed", "error", err)
	}

	if err := poll.Sleep(ctx, s.opts.PortReleasePause); err != nil {
		s.state = StateIdle

		return err
	}

	if err := s.Start(ctx, timeout); err != nil {
		return err
	}

	log.Info("Recovered", "owned", s.owned, "pid", s.PID())

	return nil
}

// Execute runs code in the application. With autoRecover a disconnected
// session is recovered first, and a connection-class failure triggers one
// recovery and exactly one more attempt.
func (s *Session) Execute(ctx context.Context, code string, autoRecover bool) (string, error) {
	if autoRecover && !s.conn.IsConnected() {
		if err := s.Recover(ctx, 0); err != nil {
			return "", err
		}
	}

	out, err := s.conn.Execute(ctx, code)
	if err == nil || !autoRecover || !cmerrors.IsConnectionClass(err) {
		return out, err
	}

	s.log.Warn("Execute failed, recovering once", "error", err)

	if err := s.Recover(ctx, 0); err != nil {
		return "", err
	}

	return s.conn.Execute(ctx, code)
}
