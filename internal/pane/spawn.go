package pane

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/dshills/panekit/internal/procinfo"
	"github.com/dshills/panekit/internal/pty"
	"github.com/dshills/panekit/internal/terminal"
)

// SpawnOptions configures Spawn.
type SpawnOptions struct {
	Size       pty.Size
	Scrollback int
	Domain     DomainID
	Probe      procinfo.Probe
	Clipboard  terminal.Clipboard
	Logger     *logrus.Entry
}

// Spawn starts cmd on a new pseudo-terminal and returns a session for it.
// The emulator writes its replies to the pseudo-terminal.
func Spawn(cmd *exec.Cmd, opts SpawnOptions) (*Session, error) {
	if !opts.Size.Valid() {
		opts.Size = pty.Size{Rows: 24, Cols: 80}
	}

	child, master, err := pty.Spawn(cmd, opts.Size)
	if err != nil {
		return nil, err
	}

	emu := terminal.New(terminal.Config{
		Rows:        int(opts.Size.Rows),
		Cols:        int(opts.Size.Cols),
		PixelWidth:  int(opts.Size.PixelWidth),
		PixelHeight: int(opts.Size.PixelHeight),
		Scrollback:  opts.Scrollback,
		Logger:      opts.Logger,
	}, master)
	if opts.Clipboard != nil {
		emu.SetClipboard(opts.Clipboard)
	}

	s := New(Config{
		Domain:   opts.Domain,
		Emulator: emu,
		Child:    child,
		Master:   master,
		Probe:    opts.Probe,
		Logger:   opts.Logger,
	})
	s.log.WithFields(logrus.Fields{
		"pid":  child.Pid(),
		"cmd":  cmd.Path,
		"size": opts.Size,
	}).Info("spawned")
	return s, nil
}

// ReadOutput reads r until it fails and sends each chunk to out. It
// returns nil at end of output. Reading the master of a pseudo-terminal
// whose child has exited fails with EIO on Linux, which also counts as
// the end of output.
func ReadOutput(r io.Reader, out chan<- []byte) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			out <- chunk
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || isEIO(err) {
				return nil
			}
			return fmt.Errorf("read pane output: %w", err)
		}
	}
}
