package launcher

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/wagiedev/claudemol-go/internal/config"
)

const (
	// DefaultExecutable is the name searched for on PATH.
	DefaultExecutable = "pymol"

	// DefaultModule is the module an interpreter must be able to import.
	DefaultModule = "pymol"

	// InterpreterProbeTimeout bounds each interpreter import probe.
	InterpreterProbeTimeout = 5 * time.Second
)

// DiscoveryConfig holds configuration for application discovery.
type DiscoveryConfig struct {
	// Command is an explicit command line prefix that skips discovery.
	Command []string

	// Executable is the name searched for on PATH. Defaults to DefaultExecutable.
	Executable string

	// Module is imported by the interpreter probe. Defaults to DefaultModule.
	Module string

	// Interpreters are probed in order after the PATH search.
	// If nil, the interpreter recorded in ConfigPath and ~/.pymol-env/bin/python
	// are used.
	Interpreters []string

	// ConfigPath is the persisted config consulted for a recorded interpreter.
	ConfigPath string

	// KnownPaths are checked for an executable file after the interpreters.
	// If nil, DefaultKnownPaths is used.
	KnownPaths []string

	// ProbeTimeout bounds each interpreter probe. Defaults to InterpreterProbeTimeout.
	ProbeTimeout time.Duration

	// Logger is an optional logger for discovery operations.
	Logger *slog.Logger
}

// Result describes a discovery outcome.
type Result struct {
	// Prefix is the command line prefix, empty when nothing was found.
	Prefix []string

	// Source names the step that produced Prefix.
	Source string

	// Searched lists every place looked at, in order.
	Searched []string
}

// Discoverer locates a runnable instance of the application.
type Discoverer interface {
	// Discover returns the command line prefix and true, or a Result listing
	// the searched places and false when nothing runnable was found.
	Discover(ctx context.Context) (Result, bool)
}

type discoverer struct {
	cfg *DiscoveryConfig
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new Discoverer with the given configuration.
func NewDiscoverer(cfg *DiscoveryConfig) Discoverer {
	if cfg == nil {
		cfg = &DiscoveryConfig{}
	}

	log := cfg.Logger
	if log == nil {
		log = config.NopLogger()
	}

	return &discoverer{
		cfg: cfg,
		log: log.With("component", "discovery"),
	}
}

// DefaultKnownPaths returns the fixed installation locations checked last.
func DefaultKnownPaths() []string {
	paths := []string{"/Applications/PyMOL.app/Contents/MacOS/PyMOL"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "Applications", "PyMOL.app", "Contents", "MacOS", "PyMOL"))
	}

	return append(paths, "/usr/bin/pymol", "/usr/local/bin/pymol")
}

// DefaultInterpreters returns the interpreter recorded in configPath (if
// usable) followed by ~/.pymol-env/bin/python.
func DefaultInterpreters(configPath string) []string {
	var out []string

	if python := config.ConfiguredPython(configPath); python != "" {
		out = append(out, python)
	}

	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Join(home, ".pymol-env", "bin", "python"))
	}

	return out
}

// Discover locates the application.
func (d *discoverer) Discover(ctx context.Context) (Result, bool) {
	if len(d.cfg.Command) > 0 {
		d.log.Debug("Using explicit command", "command", d.cfg.Command)

		return Result{
			Prefix: append([]string(nil), d.cfg.Command...),
			Source: "explicit",
		}, true
	}

	res := Result{Searched: make([]string, 0, 8)}

	executable := d.cfg.Executable
	if executable == "" {
		executable = DefaultExecutable
	}

	d.log.Debug("Searching PATH", "executable", executable)

	if path, err := exec.LookPath(executable); err == nil {
		d.log.Debug("Found executable in PATH", "path", path)

		res.Prefix = []string{path}
		res.Source = "path"

		return res, true
	}

	res.Searched = append(res.Searched, "$PATH/"+executable)

	interpreters := d.cfg.Interpreters
	if interpreters == nil {
		interpreters = DefaultInterpreters(d.cfg.ConfigPath)
	}

	module := d.cfg.Module
	if module == "" {
		module = DefaultModule
	}

	for _, python := range interpreters {
		res.Searched = append(res.Searched, python)

		if !config.IsExecutable(python) {
			continue
		}

		if d.probeInterpreter(ctx, python, module) {
			d.log.Debug("Found usable interpreter", "python", python)

			res.Prefix = []string{python, "-m", module}
			res.Source = "interpreter"

			return res, true
		}
	}

	known := d.cfg.KnownPaths
	if known == nil {
		known = DefaultKnownPaths()
	}

	for _, path := range known {
		res.Searched = append(res.Searched, path)
		d.log.Debug("Checking known path", "path", path)

		if config.IsExecutable(path) {
			d.log.Debug("Found application at known path", "path", path)

			res.Prefix = []string{path}
			res.Source = "known_path"

			return res, true
		}
	}

	d.log.Warn("Application not found in any searched paths", "searched_paths", res.Searched)

	return res, false
}

// probeInterpreter reports whether python can import module. A nonzero exit
// or a timeout means the interpreter is not usable.
func (d *discoverer) probeInterpreter(ctx context.Context, python, module string) bool {
	timeout := d.cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = InterpreterProbeTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: the interpreter path comes from configuration
	cmd := exec.CommandContext(ctx, python, "-c", "import "+module)
	if err := cmd.Run(); err != nil {
		d.log.Debug("Interpreter probe failed", "python", python, "error", err)

		return false
	}

	return true
}
