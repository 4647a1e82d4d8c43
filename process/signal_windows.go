//go:build windows

package process

import (
	"fmt"
	"syscall"
)

func (p *Process) setupProcessGroup() {
	p.command.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_UNICODE_ENVIRONMENT | syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// Sending signals to process groups isn't supported on Windows, so the best
// available approximation is signalling the process itself.
func (p *Process) signalProcessGroup(sig syscall.Signal) error {
	return p.command.Process.Signal(sig)
}

func SignalString(s syscall.Signal) string {
	return fmt.Sprintf("%d", int(s))
}
