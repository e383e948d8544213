//go:build unix

package launcher

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/claudemol-go/internal/config"
)

// TestStartProcess_ChildOutlivesParent tests that a launched child keeps
// writing output after the process that launched it has exited.
func TestStartProcess_ChildOutlivesParent(t *testing.T) {
	mark := filepath.Join(t.TempDir(), "mark")

	parent := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$", "--")
	parent.Env = append(os.Environ(), helperModeEnv+"=spawn-and-exit", helperMarkEnv+"="+mark)
	require.NoError(t, parent.Run())

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(mark)

		return err == nil && string(data) == "alive\n"
	}, 5*time.Second, 50*time.Millisecond)
}

// TestStartProcess_OutputAfterExit tests that captured output is readable
// once the process is reaped and its files are gone.
func TestStartProcess_OutputAfterExit(t *testing.T) {
	proc, err := startProcess(config.NopLogger(), []string{"/bin/sh", "-c", "echo out; echo err >&2"}, os.Environ())
	require.NoError(t, err)
	require.True(t, proc.Wait(5*time.Second))

	stdout, stderr := proc.Output()
	require.Equal(t, "out\n", stdout)
	require.Equal(t, "err\n", stderr)
}
