// Package config provides configuration types for claudemol sessions.
package config

import (
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DefaultHost is the loopback host the listener binds to.
	DefaultHost = "localhost"
	// DefaultPort is the port the listener plugin binds to.
	DefaultPort = 9880

	// DefaultConnectTimeout bounds a steady-state connect.
	DefaultConnectTimeout = 5 * time.Second
	// DefaultReadTimeout bounds each socket read once connected.
	DefaultReadTimeout = 30 * time.Second
	// DefaultAttachTimeout bounds the connect that decides attach-or-launch.
	DefaultAttachTimeout = 2 * time.Second
	// DefaultStartTimeout bounds the wait for a launched listener.
	DefaultStartTimeout = 15 * time.Second
	// DefaultProbeTimeout bounds each connect attempt while polling a launch.
	DefaultProbeTimeout = 1 * time.Second
	// DefaultPollInterval spaces launch-wait and recovery polls.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultGracefulStopTimeout bounds the wait after a graceful terminate.
	DefaultGracefulStopTimeout = 5 * time.Second
	// DefaultForceKillTimeout bounds the wait after a force kill.
	DefaultForceKillTimeout = 2 * time.Second
	// DefaultRecoverGrace is the graceful window given to an owned process
	// during recovery.
	DefaultRecoverGrace = 2 * time.Second
	// DefaultPortReleasePause lets the OS release the port before relaunch.
	DefaultPortReleasePause = 500 * time.Millisecond

	// DefaultRetryAttempts is the total number of execute attempts on
	// connection failures.
	DefaultRetryAttempts = 3
	// DefaultRetryBackoff is the fixed pause between execute attempts.
	DefaultRetryBackoff = 500 * time.Millisecond

	// DefaultCanaryCode is the health probe command.
	DefaultCanaryCode = "print('ping')"
	// DefaultCanaryMarker must appear in the canary output.
	DefaultCanaryMarker = "ping"
)

// Environment variables consulted when resolving options.
const (
	EnvHost   = "CLAUDEMOL_HOST"
	EnvPort   = "CLAUDEMOL_PORT"
	EnvPlugin = "CLAUDEMOL_PLUGIN"
)

// Canary is the trivial command used to probe health.
type Canary struct {
	Code   string
	Marker string
}

// Options configures a claudemol session.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Endpoint is where the listener is expected. Defaults to localhost:9880.
	Endpoint Endpoint

	// ConnectTimeout bounds a steady-state connect.
	ConnectTimeout time.Duration

	// ReadTimeout bounds each socket read once connected.
	ReadTimeout time.Duration

	// AttachTimeout bounds the first connect in Start. Success means an
	// instance is already listening and the session will not launch one.
	AttachTimeout time.Duration

	// StartTimeout bounds the wait for a launched listener.
	StartTimeout time.Duration

	// ProbeTimeout bounds each connect attempt while polling a launch.
	ProbeTimeout time.Duration

	// PollInterval spaces launch-wait polls.
	PollInterval time.Duration

	// GracefulStopTimeout bounds the wait after a graceful terminate in Stop.
	GracefulStopTimeout time.Duration

	// ForceKillTimeout bounds the wait after a force kill.
	ForceKillTimeout time.Duration

	// RecoverGrace is the graceful window given to an owned process in Recover.
	RecoverGrace time.Duration

	// PortReleasePause is slept after killing processes in Recover.
	PortReleasePause time.Duration

	// RetryAttempts is the total number of execute attempts on connection failure.
	RetryAttempts int

	// RetryBackoff is the fixed pause between execute attempts.
	RetryBackoff time.Duration

	// Command is an explicit command line prefix for the application.
	// If empty, the application is discovered.
	Command []string

	// PluginPath is the listener bootstrap script.
	// If empty, the plugin is searched in the usual locations.
	PluginPath string

	// StartupRCPath is the application's startup file. When it already loads
	// the plugin, the plugin argument is omitted.
	StartupRCPath string

	// ConfigPath is the persisted claudemol config file.
	ConfigPath string

	// Env provides additional environment variables for the launched process.
	Env map[string]string

	// Canary is the health probe.
	Canary Canary

	// Scavenger kills orphaned listeners during recovery.
	// If nil, the platform default is used.
	Scavenger PortScavenger
}

// Resolve returns a copy of o with every unset field replaced by its default
// and environment overrides applied. A nil receiver yields pure defaults.
func (o *Options) Resolve() *Options {
	out := &Options{}
	if o != nil {
		*out = *o
		out.Command = append([]string(nil), o.Command...)
		out.Env = maps.Clone(o.Env)
	}

	if out.Logger == nil {
		out.Logger = NopLogger()
	}

	if out.Endpoint.Host == "" {
		out.Endpoint.Host = envOr(EnvHost, DefaultHost)
	}

	if out.Endpoint.Port == 0 {
		out.Endpoint.Port = DefaultPort

		if v := os.Getenv(EnvPort); v != "" {
			if port, err := strconv.Atoi(v); err == nil && port > 0 && port < 65536 {
				out.Endpoint.Port = port
			}
		}
	}

	if out.PluginPath == "" {
		out.PluginPath = os.Getenv(EnvPlugin)
	}

	setDuration(&out.ConnectTimeout, DefaultConnectTimeout)
	setDuration(&out.ReadTimeout, DefaultReadTimeout)
	setDuration(&out.AttachTimeout, DefaultAttachTimeout)
	setDuration(&out.StartTimeout, DefaultStartTimeout)
	setDuration(&out.ProbeTimeout, DefaultProbeTimeout)
	setDuration(&out.PollInterval, DefaultPollInterval)
	setDuration(&out.GracefulStopTimeout, DefaultGracefulStopTimeout)
	setDuration(&out.ForceKillTimeout, DefaultForceKillTimeout)
	setDuration(&out.RecoverGrace, DefaultRecoverGrace)
	setDuration(&out.PortReleasePause, DefaultPortReleasePause)
	setDuration(&out.RetryBackoff, DefaultRetryBackoff)

	if out.RetryAttempts <= 0 {
		out.RetryAttempts = DefaultRetryAttempts
	}

	if out.Canary.Code == "" {
		out.Canary = Canary{Code: DefaultCanaryCode, Marker: DefaultCanaryMarker}
	}

	if out.StartupRCPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			out.StartupRCPath = filepath.Join(home, ".pymolrc")
		}
	}

	if out.ConfigPath == "" {
		out.ConfigPath = DefaultConfigPath()
	}

	return out
}

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
