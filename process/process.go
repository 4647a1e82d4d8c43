// Package process provides a helper for running and managing a subprocess.
//
// It is intended for internal use by mirirun only.
package process

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"github.com/oxidelab/mirirun/logger"
)

// Config defines how a Process should be started.
type Config struct {
	Path   string
	Args   []string
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// The signal to deliver to the process group when the context passed to
	// Run is cancelled. Defaults to SIGTERM.
	InterruptSignal syscall.Signal
}

// Process is a running (or exited) subprocess in its own process group.
type Process struct {
	conf   Config
	logger logger.Logger

	command *exec.Cmd
	pid     int

	mu            sync.Mutex
	started, done chan struct{}
	waitResult    error
}

func New(l logger.Logger, c Config) *Process {
	if c.InterruptSignal == 0 {
		c.InterruptSignal = syscall.SIGTERM
	}
	return &Process{
		conf:    c,
		logger:  l,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run executes the command and blocks until it finishes. The process runs in
// its own process group so signals can be delivered to it and every process
// it spawns. If the context is cancelled while the process is running, the
// configured interrupt signal is sent to the process group.
func (p *Process) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.command != nil {
		p.mu.Unlock()
		return errors.New("process has already been run")
	}

	p.command = exec.Command(p.conf.Path, p.conf.Args...)
	p.command.Dir = p.conf.Dir
	p.command.Env = p.conf.Env
	p.command.Stdin = p.conf.Stdin
	p.command.Stdout = p.conf.Stdout
	p.command.Stderr = p.conf.Stderr
	p.setupProcessGroup()
	p.mu.Unlock()

	if err := p.command.Start(); err != nil {
		p.waitResult = err
		close(p.started)
		close(p.done)
		return err
	}

	p.pid = p.command.Process.Pid
	close(p.started)

	p.logger.Debug("[Process] Process is running with PID: %d", p.pid)

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-cctx.Done():
			if ctx.Err() != nil {
				_ = p.Signal(p.conf.InterruptSignal)
			}
		case <-p.done:
		}
	}()

	p.waitResult = p.command.Wait()
	close(p.done)

	p.logger.Debug("[Process] Process with PID: %d finished with Exit Status: %d", p.pid, p.ExitCode())

	if p.waitResult != nil {
		if exitErr := new(exec.ExitError); !errors.As(p.waitResult, &exitErr) {
			return p.waitResult
		}
	}
	return nil
}

// Started returns a channel that is closed once the process has started.
func (p *Process) Started() <-chan struct{} {
	return p.started
}

// Done returns a channel that is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Pid returns the process id, once started.
func (p *Process) Pid() int {
	return p.pid
}

// Signal sends a signal to the process group. Signals sent before the
// process starts, or after it exits, are dropped.
func (p *Process) Signal(sig syscall.Signal) error {
	select {
	case <-p.started:
	default:
		return nil
	}

	select {
	case <-p.done:
		return nil
	default:
	}

	if p.pid == 0 {
		return nil
	}

	p.logger.Debug("[Process] Sending signal %s to PGID: %d", SignalString(sig), p.pid)
	return p.signalProcessGroup(sig)
}

// ExitCode returns the exit code of the finished process. It returns -1 if
// the process has not finished, and 1 if it failed to start.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
	default:
		return -1
	}

	return ExitStatus(p.waitResult)
}

// ExitStatus extracts an exit code from the error returned by (*exec.Cmd).Wait.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}

	if exitErr := new(exec.ExitError); errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return 1
}
