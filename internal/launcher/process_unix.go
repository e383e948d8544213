//go:build unix

package launcher

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// signalTerminate sends SIGTERM to the whole process group so helpers the
// application started go down with it.
func (p *Process) signalTerminate() error {
	return signalGroup(p.PID(), unix.SIGTERM)
}

func (p *Process) signalKill() error {
	return signalGroup(p.PID(), unix.SIGKILL)
}

func signalGroup(pid int, sig unix.Signal) error {
	if err := unix.Kill(-pid, sig); err != nil {
		// Fall back to the leader alone if the group is already gone.
		return unix.Kill(pid, sig)
	}

	return nil
}
