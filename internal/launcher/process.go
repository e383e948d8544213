package launcher

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// maxOutputBufferSize caps how much of each captured stream is read back.
const maxOutputBufferSize = 1024 * 1024 // 1MB

// Process is a handle to a spawned application instance.
//
// The child's stdout and stderr go to unlinked temporary files rather than
// pipes, so it keeps running and writing after the launching process exits.
type Process struct {
	log    *slog.Logger
	cmd    *exec.Cmd
	stdout *captureFile
	stderr *captureFile

	done    chan struct{}
	waitErr error
}

// startProcess spawns argv detached in its own process group and starts a
// waiter that reaps it.
func startProcess(log *slog.Logger, argv, env []string) (*Process, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("start process: empty command")
	}

	stdout, err := newCaptureFile("stdout", maxOutputBufferSize)
	if err != nil {
		return nil, fmt.Errorf("start process: %w", err)
	}

	stderr, err := newCaptureFile("stderr", maxOutputBufferSize)
	if err != nil {
		stdout.release()

		return nil, fmt.Errorf("start process: %w", err)
	}

	//nolint:gosec // G204: launching the discovered application is the purpose
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	cmd.SysProcAttr = detachedAttr()
	cmd.Stdout = stdout.f
	cmd.Stderr = stderr.f

	p := &Process{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		done:   make(chan struct{}),
	}

	if err := cmd.Start(); err != nil {
		stdout.release()
		stderr.release()

		return nil, fmt.Errorf("start process: %w", err)
	}

	stdout.unlink()
	stderr.unlink()

	p.log = log.With("pid", cmd.Process.Pid)

	go func() {
		p.waitErr = cmd.Wait()

		p.stdout.release()
		p.stderr.release()
		close(p.done)
	}()

	return p, nil
}

// PID returns the process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports without blocking whether the process has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the exit status, -1 while running or when killed by a signal.
func (p *Process) ExitCode() int {
	if !p.Exited() {
		return -1
	}

	return p.cmd.ProcessState.ExitCode()
}

// Err returns the error reported by wait, nil while running or on a clean exit.
func (p *Process) Err() error {
	if !p.Exited() {
		return nil
	}

	return p.waitErr
}

// Output returns the captured standard output and standard error so far.
func (p *Process) Output() (stdout, stderr string) {
	return p.stdout.String(), p.stderr.String()
}

// Wait blocks until the process exits or timeout elapses and reports
// whether it exited.
func (p *Process) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}

// Terminate asks the process group to exit and waits up to graceful. If the
// process is still alive it is force-killed and waited on for up to force.
// An error is returned only if the process outlived both waits.
func (p *Process) Terminate(graceful, force time.Duration) error {
	if p.Exited() {
		return nil
	}

	p.log.Debug("Terminating process", "graceful_timeout", graceful)

	if err := p.signalTerminate(); err != nil {
		p.log.Debug("Terminate signal failed", "error", err)
	}

	if p.Wait(graceful) {
		return nil
	}

	p.log.Warn("Process did not exit after terminate, killing")

	return p.Kill(force)
}

// Kill force-kills the process group and waits up to wait for it to exit.
func (p *Process) Kill(wait time.Duration) error {
	if p.Exited() {
		return nil
	}

	if err := p.signalKill(); err != nil {
		p.log.Debug("Kill signal failed", "error", err)
	}

	if !p.Wait(wait) {
		return fmt.Errorf("process %d still running %s after kill", p.PID(), wait)
	}

	return nil
}

// captureFile is a temporary file handed to the child as one of its output
// streams. The parent keeps a descriptor to read it back; once the child
// exits the content is snapshotted and the file closed.
type captureFile struct {
	mu      sync.Mutex
	f       *os.File
	limit   int64
	removed bool
	kept    string
}

func newCaptureFile(stream string, limit int64) (*captureFile, error) {
	f, err := os.CreateTemp("", "claudemol-"+stream+"-*.log")
	if err != nil {
		return nil, fmt.Errorf("create %s capture: %w", stream, err)
	}

	return &captureFile{f: f, limit: limit}, nil
}

// unlink removes the directory entry while descriptors stay open. Platforms
// that refuse to remove open files keep it until release.
func (c *captureFile) unlink() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.f != nil && os.Remove(c.f.Name()) == nil {
		c.removed = true
	}
}

// release snapshots the content and closes the file.
func (c *captureFile) release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.f == nil {
		return
	}

	c.kept = c.readLocked()
	_ = c.f.Close()

	if !c.removed {
		_ = os.Remove(c.f.Name())
	}

	c.f = nil
}

func (c *captureFile) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.f == nil {
		return c.kept
	}

	return c.readLocked()
}

// readLocked reads at most limit bytes from the start of the file without
// moving the offset shared with the child.
func (c *captureFile) readLocked() string {
	data, _ := io.ReadAll(io.NewSectionReader(c.f, 0, c.limit))

	return string(data)
}
