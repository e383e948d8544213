package launcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/wagiedev/claudemol-go/internal/config"
	"github.com/wagiedev/claudemol-go/internal/connection"
	cmerrors "github.com/wagiedev/claudemol-go/internal/errors"
	"github.com/wagiedev/claudemol-go/internal/poll"
)

// LaunchOptions controls a single launch.
type LaunchOptions struct {
	// TargetFile is an optional file for the application to open.
	TargetFile string

	// WaitForSocket makes Launch block until the listener accepts connections.
	WaitForSocket bool

	// Timeout bounds the wait. Defaults to the configured start timeout.
	Timeout time.Duration
}

// Plan is a resolved command line ready to spawn.
type Plan struct {
	Args []string

	// Source names the discovery step that produced the command prefix.
	Source string

	// PluginPath is empty when the startup file already loads the plugin.
	PluginPath string
}

// Launcher brings up application instances.
type Launcher struct {
	log        *slog.Logger
	opts       *config.Options
	discoverer Discoverer
}

// New creates a Launcher discovering the application from options.
func New(options *config.Options) *Launcher {
	opts := options.Resolve()

	return NewWithDiscoverer(opts, NewDiscoverer(&DiscoveryConfig{
		Command:    opts.Command,
		ConfigPath: opts.ConfigPath,
		Logger:     opts.Logger,
	}))
}

// NewWithDiscoverer creates a Launcher using the given Discoverer.
func NewWithDiscoverer(options *config.Options, d Discoverer) *Launcher {
	opts := options.Resolve()

	return &Launcher{
		log:        opts.Logger.With("component", "launcher"),
		opts:       opts,
		discoverer: d,
	}
}

// Plan discovers the application and builds its command line.
//
// Returns NotInstalledError when no command prefix is found, or
// PluginMissingError when the plugin is needed but cannot be located.
func (l *Launcher) Plan(ctx context.Context, targetFile string) (Plan, error) {
	res, ok := l.discoverer.Discover(ctx)
	if !ok {
		return Plan{}, &cmerrors.NotInstalledError{SearchedPaths: res.Searched}
	}

	var pluginPath string

	if StartupRCLoadsPlugin(l.opts.StartupRCPath) {
		l.log.Debug("Startup file already loads the plugin", "startup_rc", l.opts.StartupRCPath)
	} else {
		path, err := LocatePlugin(l.opts.PluginPath)
		if err != nil {
			return Plan{}, err
		}

		pluginPath = path
	}

	return Plan{
		Args:       BuildArgs(res.Prefix, targetFile, pluginPath),
		Source:     res.Source,
		PluginPath: pluginPath,
	}, nil
}

// Spawn starts the application without waiting for its listener.
func (l *Launcher) Spawn(ctx context.Context, targetFile string) (*Process, error) {
	plan, err := l.Plan(ctx, targetFile)
	if err != nil {
		l.log.Error("Cannot launch application", "error", err)

		return nil, err
	}

	l.log.Debug("Built command arguments", "args", plan.Args, "source", plan.Source)

	proc, err := startProcess(l.log, plan.Args, BuildEnvironment(os.Environ(), l.opts.Env))
	if err != nil {
		l.log.Error("Failed to start application", "error", err)

		return nil, &cmerrors.StartupCrashError{ExitCode: -1, Err: err}
	}

	l.log.Info("Launched application", "pid", proc.PID())

	return proc, nil
}

// Launch spawns the application and, if requested, waits for its listener.
// On a wait timeout the TimeoutError is returned together with the process,
// which is left running for the caller to reap.
func (l *Launcher) Launch(ctx context.Context, lo LaunchOptions) (*Process, error) {
	proc, err := l.Spawn(ctx, lo.TargetFile)
	if err != nil {
		return nil, err
	}

	if !lo.WaitForSocket {
		return proc, nil
	}

	timeout := lo.Timeout
	if timeout <= 0 {
		timeout = l.opts.StartTimeout
	}

	if err := l.WaitForListener(ctx, timeout); err != nil {
		return proc, err
	}

	return proc, nil
}

// WaitForListener polls the endpoint with short connects until one succeeds
// or timeout elapses. Refused connections during the wait are expected.
func (l *Launcher) WaitForListener(ctx context.Context, timeout time.Duration) error {
	conn := connection.New(l.opts)

	err := poll.Until(ctx, timeout, l.opts.PollInterval, func(ctx context.Context) (bool, error) {
		if err := conn.Connect(ctx, l.opts.ProbeTimeout); err != nil {
			l.log.Debug("Listener not reachable yet", "error", err)

			return false, err
		}

		conn.Disconnect()

		return true, nil
	})

	if deadline, ok := errors.AsType[*poll.ErrDeadline](err); ok {
		return &cmerrors.TimeoutError{
			Op:       "launch",
			Endpoint: l.opts.Endpoint.String(),
			After:    timeout,
			Err:      deadline.Last,
		}
	}

	return err
}

// ConnectOrLaunch attaches to a listening instance if there is one; otherwise
// it launches the application, waits for it and connects. The returned
// Process is nil when an existing instance was reused.
func (l *Launcher) ConnectOrLaunch(ctx context.Context, targetFile string) (*connection.Connection, *Process, error) {
	conn := connection.New(l.opts)

	if err := conn.Connect(ctx, l.opts.AttachTimeout); err == nil {
		l.log.Info("Attached to running instance")

		return conn, nil, nil
	}

	proc, err := l.Launch(ctx, LaunchOptions{
		TargetFile:    targetFile,
		WaitForSocket: true,
		Timeout:       l.opts.StartTimeout,
	})
	if err != nil {
		return nil, proc, err
	}

	if err := conn.Connect(ctx, 0); err != nil {
		return nil, proc, err
	}

	return conn, proc, nil
}
