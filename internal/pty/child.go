package pty

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Child is a process running on the slave side of a pseudo-terminal.
type Child struct {
	proc *os.Process
	done chan struct{}
	err  error
}

// startChild reaps proc in the background using wait.
func startChild(proc *os.Process, wait func() error) *Child {
	c := &Child{
		proc: proc,
		done: make(chan struct{}),
	}
	go func() {
		c.err = wait()
		close(c.done)
	}()
	return c
}

// Pid returns the process id of the child.
func (c *Child) Pid() int {
	if c.proc == nil {
		return 0
	}
	return c.proc.Pid
}

// Kill sends a kill signal to the child. Killing a child that already
// exited is not an error.
func (c *Child) Kill() error {
	if c.proc == nil {
		return ErrNotStarted
	}
	select {
	case <-c.done:
		return nil
	default:
	}
	if err := c.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill pid %d: %w", c.proc.Pid, err)
	}
	return nil
}

// TryWait reports whether the child has exited without blocking. When the
// child is gone but its exit status could not be collected, exited is true
// and err wraps ErrWait.
func (c *Child) TryWait() (exited bool, err error) {
	if c.proc == nil {
		return false, ErrNotStarted
	}
	select {
	case <-c.done:
		return true, c.statusErr()
	default:
		return false, nil
	}
}

// Wait blocks until the child exits and returns its exit error, if any.
// A non-zero exit status is reported as an *exec.ExitError.
func (c *Child) Wait() error {
	if c.proc == nil {
		return ErrNotStarted
	}
	<-c.done
	return c.err
}

// ExitCode returns the exit code of the child, or -1 while it is running
// or when the status is unknown.
func (c *Child) ExitCode() int {
	if exited, err := c.TryWait(); !exited || err != nil {
		return -1
	}
	var exitErr *exec.ExitError
	if errors.As(c.err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 0
}

// statusErr separates a normal exit, including a non-zero status, from a
// failure to collect the status at all.
func (c *Child) statusErr() error {
	if c.err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(c.err, &exitErr) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrWait, c.err)
}
