package claudemol

import (
	"context"

	"github.com/wagiedev/claudemol-go/internal/connection"
	"github.com/wagiedev/claudemol-go/internal/launcher"
)

// Connection is a single socket to the listener with retrying Execute.
type Connection = connection.Connection

// Process is a handle to a launched application instance.
type Process = launcher.Process

// LaunchOptions controls a single launch.
type LaunchOptions = launcher.LaunchOptions

// Discovery describes where the application was found, or where it was looked for.
type Discovery = launcher.Result

// Discover locates the application without launching it. ok is false when
// nothing runnable was found; Discovery.Searched lists the places tried.
func Discover(ctx context.Context, opts ...Option) (Discovery, bool) {
	options := applyOptions(opts).Resolve()

	return launcher.NewDiscoverer(&launcher.DiscoveryConfig{
		Command:    options.Command,
		ConfigPath: options.ConfigPath,
		Logger:     options.Logger,
	}).Discover(ctx)
}

// Launch starts the application with the listener plugin. See LaunchOptions.
func Launch(ctx context.Context, lo LaunchOptions, opts ...Option) (*Process, error) {
	return launcher.New(applyOptions(opts)).Launch(ctx, lo)
}

// ConnectOrLaunch returns a connection to a listening instance, launching
// one first if nothing is listening. The Process is nil when an existing
// instance was reused; otherwise the caller owns it.
func ConnectOrLaunch(ctx context.Context, targetFile string, opts ...Option) (*Connection, *Process, error) {
	return launcher.New(applyOptions(opts)).ConnectOrLaunch(ctx, targetFile)
}

// NewConnection creates a disconnected Connection to the configured endpoint.
func NewConnection(opts ...Option) *Connection {
	return connection.New(applyOptions(opts))
}
