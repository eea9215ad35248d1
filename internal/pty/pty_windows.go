//go:build windows

package pty

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	conpty "github.com/aymanbagabas/go-pty"
)

// Spawn starts cmd attached to a new pseudo console of the given size.
func Spawn(cmd *exec.Cmd, size Size) (*Child, *Master, error) {
	p, err := conpty.New()
	if err != nil {
		return nil, nil, fmt.Errorf("create pseudo console: %w", err)
	}
	if err := p.Resize(int(size.Cols), int(size.Rows)); err != nil {
		_ = p.Close()
		return nil, nil, fmt.Errorf("set size %s: %w", size, err)
	}

	name := cmd.Path
	var args []string
	if len(cmd.Args) > 0 {
		name, args = cmd.Args[0], cmd.Args[1:]
	}
	c := p.Command(name, args...)
	c.Env = cmd.Env
	c.Dir = cmd.Dir
	c.SysProcAttr = cmd.SysProcAttr

	if err := c.Start(); err != nil {
		_ = p.Close()
		return nil, nil, fmt.Errorf("spawn %s: %w", name, err)
	}
	return startChild(c.Process, c.Wait), &Master{p: p, size: size}, nil
}

// Master is the controlling side of a pseudo console.
type Master struct {
	mu     sync.Mutex
	p      conpty.Pty
	size   Size
	closed bool
}

// Write sends input to the child.
func (m *Master) Write(b []byte) (int, error) {
	p, err := m.pty()
	if err != nil {
		return 0, err
	}
	return p.Write(b)
}

// Resize changes the console size.
func (m *Master) Resize(size Size) error {
	p, err := m.pty()
	if err != nil {
		return err
	}
	if err := p.Resize(int(size.Cols), int(size.Rows)); err != nil {
		return fmt.Errorf("set size %s: %w", size, err)
	}
	m.mu.Lock()
	m.size = size
	m.mu.Unlock()
	return nil
}

// Size returns the last size set on the console.
func (m *Master) Size() (Size, error) {
	if _, err := m.pty(); err != nil {
		return Size{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size, nil
}

// CloneReader returns a read handle on the console output. Closing it
// does not close the master.
func (m *Master) CloneReader() (io.ReadCloser, error) {
	p, err := m.pty()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(p), nil
}

// ProcessGroupLeader is not available for pseudo consoles.
func (m *Master) ProcessGroupLeader() (int, bool) {
	return 0, false
}

// Close closes the pseudo console.
func (m *Master) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.p.Close()
}

func (m *Master) pty() (conpty.Pty, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	return m.p, nil
}
