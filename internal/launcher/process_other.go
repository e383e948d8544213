//go:build !unix

package launcher

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return nil
}

// signalTerminate has no graceful equivalent here and kills outright.
func (p *Process) signalTerminate() error {
	return p.cmd.Process.Kill()
}

func (p *Process) signalKill() error {
	return p.cmd.Process.Kill()
}
