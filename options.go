package claudemol

import (
	"log/slog"
	"maps"
	"time"

	"github.com/wagiedev/claudemol-go/internal/config"
)

// Options holds the resolved session configuration.
type Options = config.Options

// Endpoint identifies the listener's host and port.
type Endpoint = config.Endpoint

// Canary is the command used to probe health and the marker it must print.
type Canary = config.Canary

// PortScavenger kills processes bound to a port during recovery.
type PortScavenger = config.PortScavenger

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithEndpoint sets the listener host and port.
// Defaults to localhost:9880, overridable via CLAUDEMOL_HOST and CLAUDEMOL_PORT.
func WithEndpoint(host string, port int) Option {
	return func(o *Options) {
		o.Endpoint = Endpoint{Host: host, Port: port}
	}
}

// ===== Timeouts =====

// WithConnectTimeout bounds a steady-state connect (default 5s).
func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ConnectTimeout = d
	}
}

// WithReadTimeout bounds each response read (default 30s).
func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = d
	}
}

// WithAttachTimeout bounds the connect that decides attach or launch (default 2s).
func WithAttachTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.AttachTimeout = d
	}
}

// WithStartTimeout bounds the wait for a launched listener (default 15s).
func WithStartTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.StartTimeout = d
	}
}

// WithPollInterval sets the spacing of launch-wait polls (default 500ms).
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		o.PollInterval = d
	}
}

// WithGracefulStopTimeout bounds the wait after a graceful terminate (default 5s).
func WithGracefulStopTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.GracefulStopTimeout = d
	}
}

// WithRetryPolicy sets the total execute attempts on connection failure and
// the pause between them (default 3 and 500ms).
func WithRetryPolicy(attempts int, backoff time.Duration) Option {
	return func(o *Options) {
		o.RetryAttempts = attempts
		o.RetryBackoff = backoff
	}
}

// ===== Launching =====

// WithCommand sets an explicit command line prefix and skips discovery.
func WithCommand(prefix ...string) Option {
	return func(o *Options) {
		o.Command = append([]string(nil), prefix...)
	}
}

// WithPluginPath sets the listener plugin script.
// Defaults to CLAUDEMOL_PLUGIN, then ~/.claudemol/plugin.py.
func WithPluginPath(path string) Option {
	return func(o *Options) {
		o.PluginPath = path
	}
}

// WithStartupRCPath sets the application startup file checked for an
// existing plugin load (default ~/.pymolrc).
func WithStartupRCPath(path string) Option {
	return func(o *Options) {
		o.StartupRCPath = path
	}
}

// WithConfigPath sets the persisted config file (default ~/.claudemol/config.json).
func WithConfigPath(path string) Option {
	return func(o *Options) {
		o.ConfigPath = path
	}
}

// WithEnv adds environment variables for the launched process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// ===== Health and Recovery =====

// WithCanary sets the health probe command and the marker its output must
// contain (default print('ping') and ping).
func WithCanary(code, marker string) Option {
	return func(o *Options) {
		o.Canary = Canary{Code: code, Marker: marker}
	}
}

// WithPortScavenger replaces the recovery scavenger. The default uses lsof
// where available.
func WithPortScavenger(s PortScavenger) Option {
	return func(o *Options) {
		o.Scavenger = s
	}
}
