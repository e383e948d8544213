package claudemol

import (
	"context"
	"time"

	"github.com/wagiedev/claudemol-go/internal/session"
)

// State is the session lifecycle state.
type State = session.State

// Session lifecycle states.
const (
	StateIdle       = session.StateIdle
	StateAttaching  = session.StateAttaching
	StateLaunching  = session.StateLaunching
	StateReady      = session.StateReady
	StateRecovering = session.StateRecovering
	StateStopped    = session.StateStopped
)

// Session supervises one application instance.
//
// A Session is not safe for concurrent use; callers sharing one across
// goroutines must serialize calls.
type Session interface {
	// Start attaches to a listening instance or launches one. A timeout <= 0
	// uses the configured start timeout. Start on a connected session is a
	// no-op.
	Start(ctx context.Context, timeout time.Duration) error

	// Stop disconnects and terminates the process only if this session
	// launched it. A gracefulTimeout <= 0 uses the configured default.
	Stop(gracefulTimeout time.Duration)

	// Recover kills the owned process and anything else on the port, then
	// starts again.
	Recover(ctx context.Context, timeout time.Duration) error

	// Execute runs code and returns its printed output. With autoRecover a
	// connection-class failure triggers one recovery and one more attempt.
	Execute(ctx context.Context, code string, autoRecover bool) (string, error)

	// IsHealthy runs the canary command.
	IsHealthy(ctx context.Context) bool

	// IsConnected probes the socket without consuming data.
	IsConnected() bool

	// IsRunning reports whether an owned process is alive.
	IsRunning() bool

	// Owned reports whether this session launched the process.
	Owned() bool

	// PID returns the owned process id, or 0.
	PID() int

	// State returns the lifecycle state.
	State() State

	// Endpoint returns the listener endpoint.
	Endpoint() Endpoint
}

// Compile-time verification that *session.Session implements Session.
var _ Session = (*session.Session)(nil)

// NewSession creates an idle Session.
func NewSession(opts ...Option) Session {
	return session.New(applyOptions(opts))
}
