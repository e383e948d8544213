package launcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/wagiedev/claudemol-go/internal/errors"
)

// PluginFileName is the listener bootstrap script name looked up in the
// default locations.
const PluginFileName = "plugin.py"

// startupMarkers identify a startup file that already loads the plugin.
var startupMarkers = []string{"claudemol", "claude_socket_plugin"}

// PluginCandidates returns the default plugin locations in search order:
// ~/.claudemol/plugin.py, then next to the running executable.
func PluginCandidates() []string {
	var out []string

	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Join(home, ".claudemol", PluginFileName))
	}

	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), PluginFileName))
	}

	return out
}

// LocatePlugin returns the plugin path. An explicit path must exist; otherwise
// the first existing default candidate wins. Returns PluginMissingError when
// nothing is found.
func LocatePlugin(explicit string) (string, error) {
	if explicit != "" {
		if isFile(explicit) {
			return explicit, nil
		}

		return "", &errors.PluginMissingError{Path: explicit}
	}

	candidates := PluginCandidates()
	for _, path := range candidates {
		if isFile(path) {
			return path, nil
		}
	}

	return "", &errors.PluginMissingError{Path: strings.Join(candidates, ", ")}
}

// StartupRCLoadsPlugin reports whether the startup file at path already
// loads the plugin. A missing or unreadable file reports false.
func StartupRCLoadsPlugin(path string) bool {
	if path == "" {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	content := string(data)
	for _, marker := range startupMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}

	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
