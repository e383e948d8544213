//go:build integration

package integration

import (
	"errors"
	"testing"

	"github.com/wagiedev/claudemol-go"
)

// skipIfNotInstalled skips the test if the application or its listener
// plugin is not available on this machine.
func skipIfNotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*claudemol.NotInstalledError](err); ok {
		t.Skip("application not installed")
	}

	if _, ok := errors.AsType[*claudemol.PluginMissingError](err); ok {
		t.Skip("listener plugin not installed")
	}
}
