//go:build !windows

package process

import (
	"fmt"
	"syscall"
)

func (p *Process) setupProcessGroup() {
	// A fresh process group lets us signal the whole test run (cargo, miri
	// and anything they spawn) in one go.
	p.command.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
}

func (p *Process) signalProcessGroup(sig syscall.Signal) error {
	return syscall.Kill(-p.pid, sig)
}

func SignalString(s syscall.Signal) string {
	switch s {
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGQUIT:
		return "SIGQUIT"
	case syscall.SIGKILL:
		return "SIGKILL"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return fmt.Sprintf("%d", int(s))
}
