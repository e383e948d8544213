package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultConfigPath returns ~/.claudemol/config.json, or "" if the home
// directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".claudemol", "config.json")
}

// Persisted is the on-disk claudemol config written by setup.
type Persisted struct {
	PythonPath string `json:"python_path,omitempty"`
}

// LoadPersisted reads the persisted config at path. A missing or malformed
// file yields ok=false.
func LoadPersisted(path string) (Persisted, bool) {
	if path == "" {
		return Persisted{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Persisted{}, false
	}

	var p Persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return Persisted{}, false
	}

	return p, true
}

// ConfiguredPython returns the interpreter recorded in the persisted config
// if it exists and is executable, or "".
func ConfiguredPython(path string) string {
	p, ok := LoadPersisted(path)
	if !ok || p.PythonPath == "" {
		return ""
	}

	if !IsExecutable(p.PythonPath) {
		return ""
	}

	return p.PythonPath
}

// IsExecutable reports whether path is a regular file with an execute bit.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	return info.Mode().Perm()&0o111 != 0
}
