package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolve_Defaults(t *testing.T) {
	t.Setenv(EnvHost, "")
	t.Setenv(EnvPort, "")
	t.Setenv(EnvPlugin, "")

	var o *Options

	got := o.Resolve()

	require.NotNil(t, got.Logger)
	require.Equal(t, Endpoint{Host: DefaultHost, Port: DefaultPort}, got.Endpoint)
	require.Equal(t, DefaultConnectTimeout, got.ConnectTimeout)
	require.Equal(t, DefaultReadTimeout, got.ReadTimeout)
	require.Equal(t, DefaultAttachTimeout, got.AttachTimeout)
	require.Equal(t, DefaultRetryAttempts, got.RetryAttempts)
	require.Equal(t, DefaultRetryBackoff, got.RetryBackoff)
	require.Equal(t, Canary{Code: DefaultCanaryCode, Marker: DefaultCanaryMarker}, got.Canary)
}

func TestResolve_KeepsExplicitValues(t *testing.T) {
	o := &Options{
		Endpoint:      Endpoint{Host: "127.0.0.1", Port: 4242},
		ReadTimeout:   time.Second,
		RetryAttempts: 5,
		Command:       []string{"/opt/viz"},
		Env:           map[string]string{"A": "1"},
	}

	got := o.Resolve()

	require.Equal(t, "127.0.0.1:4242", got.Endpoint.String())
	require.Equal(t, time.Second, got.ReadTimeout)
	require.Equal(t, 5, got.RetryAttempts)

	// Resolve copies; mutating the result leaves the input untouched.
	got.Command[0] = "changed"
	got.Env["A"] = "2"
	require.Equal(t, "/opt/viz", o.Command[0])
	require.Equal(t, "1", o.Env["A"])
}

func TestResolve_EnvOverrides(t *testing.T) {
	t.Setenv(EnvHost, "127.0.0.2")
	t.Setenv(EnvPort, "9999")
	t.Setenv(EnvPlugin, "/tmp/plugin.py")

	got := (&Options{}).Resolve()

	require.Equal(t, Endpoint{Host: "127.0.0.2", Port: 9999}, got.Endpoint)
	require.Equal(t, "/tmp/plugin.py", got.PluginPath)
}

func TestResolve_IgnoresInvalidPortEnv(t *testing.T) {
	t.Setenv(EnvPort, "not-a-port")

	got := (&Options{}).Resolve()

	require.Equal(t, DefaultPort, got.Endpoint.Port)
}

func TestConfiguredPython(t *testing.T) {
	dir := t.TempDir()
	python := filepath.Join(dir, "python")
	require.NoError(t, os.WriteFile(python, []byte("#!/bin/sh\n"), 0o755))

	cfg := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"python_path": "`+python+`"}`), 0o644))

	require.Equal(t, python, ConfiguredPython(cfg))
}

func TestConfiguredPython_MissingOrInvalid(t *testing.T) {
	dir := t.TempDir()

	require.Empty(t, ConfiguredPython(filepath.Join(dir, "absent.json")))
	require.Empty(t, ConfiguredPython(""))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	require.Empty(t, ConfiguredPython(bad))

	notExec := filepath.Join(dir, "python")
	require.NoError(t, os.WriteFile(notExec, []byte("x"), 0o644))

	cfg := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"python_path": "`+notExec+`"}`), 0o644))
	require.Empty(t, ConfiguredPython(cfg))
}
