//go:build !windows

package pty

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	creackpty "github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// Spawn starts cmd with its standard streams attached to a new
// pseudo-terminal of the given size. The child becomes a session leader
// with the terminal as its controlling tty.
func Spawn(cmd *exec.Cmd, size Size) (*Child, *Master, error) {
	f, err := creackpty.StartWithSize(cmd, winsize(size))
	if err != nil {
		return nil, nil, fmt.Errorf("spawn %s: %w", cmd.Path, err)
	}
	return startChild(cmd.Process, cmd.Wait), &Master{f: f}, nil
}

// Master is the controlling side of a pseudo-terminal.
type Master struct {
	mu     sync.Mutex
	f      *os.File
	closed bool
}

// Write sends input to the child.
func (m *Master) Write(p []byte) (int, error) {
	f, err := m.file()
	if err != nil {
		return 0, err
	}
	return f.Write(p)
}

// Resize changes the terminal size and signals the foreground process
// group with SIGWINCH.
func (m *Master) Resize(size Size) error {
	f, err := m.file()
	if err != nil {
		return err
	}
	if err := creackpty.Setsize(f, winsize(size)); err != nil {
		return fmt.Errorf("set size %s: %w", size, err)
	}
	return nil
}

// Size returns the current terminal size.
func (m *Master) Size() (Size, error) {
	f, err := m.file()
	if err != nil {
		return Size{}, err
	}
	ws, err := creackpty.GetsizeFull(f)
	if err != nil {
		return Size{}, fmt.Errorf("get size: %w", err)
	}
	return Size{Rows: ws.Rows, Cols: ws.Cols, PixelWidth: ws.X, PixelHeight: ws.Y}, nil
}

// CloneReader returns an independent read handle on the terminal output.
// Closing it does not close the master.
func (m *Master) CloneReader() (io.ReadCloser, error) {
	var dup int
	err := m.control(func(fd int) error {
		var err error
		dup, err = unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("clone reader: %w", err)
	}
	return os.NewFile(uintptr(dup), "pty-master"), nil
}

// ProcessGroupLeader returns the id of the foreground process group of
// the terminal. ok is false when there is none.
func (m *Master) ProcessGroupLeader() (pid int, ok bool) {
	err := m.control(func(fd int) error {
		var err error
		pid, err = unix.IoctlGetInt(fd, unix.TIOCGPGRP)
		return err
	})
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Close closes the master. Readers cloned from it see EOF or EIO once the
// child side is gone as well.
func (m *Master) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.f.Close()
}

func (m *Master) file() (*os.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	return m.f, nil
}

// control runs fn with the raw descriptor without switching the file to
// blocking mode.
func (m *Master) control(fn func(fd int) error) error {
	f, err := m.file()
	if err != nil {
		return err
	}
	raw, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var fnErr error
	if err := raw.Control(func(fd uintptr) { fnErr = fn(int(fd)) }); err != nil {
		return err
	}
	return fnErr
}

func winsize(s Size) *creackpty.Winsize {
	return &creackpty.Winsize{Rows: s.Rows, Cols: s.Cols, X: s.PixelWidth, Y: s.PixelHeight}
}
