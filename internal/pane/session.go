package pane

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/dshills/panekit/internal/logging"
	"github.com/dshills/panekit/internal/procinfo"
	"github.com/dshills/panekit/internal/pty"
	"github.com/dshills/panekit/internal/search"
	"github.com/dshills/panekit/internal/terminal"
)

// Emulator is the terminal state a session drives. *terminal.Terminal
// implements it.
type Emulator interface {
	AdvanceBytes(p []byte)
	Resize(rows, cols int) error
	SetPixelSize(width, height int)
	Dimensions() (rows, cols int)
	MouseEvent(ev terminal.MouseEvent) error
	KeyDown(key terminal.KeyCode, mods terminal.Modifiers) error
	SendPaste(text string) error
	FocusChanged(focused bool) error
	IsMouseGrabbed() bool
	Title() string
	Palette() terminal.Palette
	SetClipboard(c terminal.Clipboard)
	EraseScrollback()
	CurrentDir() *url.URL
	SemanticZones() []terminal.SemanticZone
	Snapshot() *terminal.Snapshot
	Renderable() terminal.Renderable
}

// Child is the process running in a pane. *pty.Child implements it.
type Child interface {
	Kill() error
	TryWait() (exited bool, err error)
	Wait() error
	Pid() int
}

// Master is the controlling side of a pane's pseudo-terminal. *pty.Master
// implements it.
type Master interface {
	io.Writer
	Resize(size pty.Size) error
	CloneReader() (io.ReadCloser, error)
	ProcessGroupLeader() (pid int, ok bool)
	Close() error
}

// Config holds the parts a Session is assembled from.
type Config struct {
	// ID defaults to NextPaneID().
	ID     PaneID
	Domain DomainID

	Emulator Emulator
	Child    Child
	Master   Master

	// Probe finds the working directory when the program has not
	// reported one. Defaults to procinfo.Default().
	Probe procinfo.Probe

	Logger *logrus.Entry
}

// Session is a local pane.
type Session struct {
	id     PaneID
	domain DomainID

	mu sync.Mutex
	// viewOwner is the goroutine running a WithRenderable callback, or 0.
	viewOwner atomic.Int64
	emu       Emulator

	child  Child
	master Master
	probe  procinfo.Probe
	log    *logrus.Entry

	dead      atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New assembles a session. The session takes ownership of the emulator,
// child and master.
func New(cfg Config) *Session {
	if cfg.ID == 0 {
		cfg.ID = NextPaneID()
	}
	if cfg.Probe == nil {
		cfg.Probe = procinfo.Default()
	}
	return &Session{
		id:     cfg.ID,
		domain: cfg.Domain,
		emu:    cfg.Emulator,
		child:  cfg.Child,
		master: cfg.Master,
		probe:  cfg.Probe,
		log: logging.Component(cfg.Logger, "pane").WithFields(logrus.Fields{
			"pane":   cfg.ID,
			"domain": cfg.Domain,
		}),
	}
}

// lock acquires exclusive access to the emulator. Other goroutines wait
// for the holder; the goroutine lending the renderable view panics
// instead of deadlocking on itself.
func (s *Session) lock() {
	if owner := s.viewOwner.Load(); owner != 0 && owner == goid() {
		panic(ErrReentrantAccess)
	}
	s.mu.Lock()
}

// ID returns the pane id.
func (s *Session) ID() PaneID {
	return s.id
}

// Domain returns the id of the domain that created the pane.
func (s *Session) Domain() DomainID {
	return s.domain
}

// WithRenderable lends the emulator's renderable view to fn. The view
// must not be retained after fn returns. Calling back into the session
// from fn panics with ErrReentrantAccess; other goroutines block until fn
// returns.
func (s *Session) WithRenderable(fn func(r terminal.Renderable)) {
	s.lock()
	s.viewOwner.Store(goid())
	defer func() {
		s.viewOwner.Store(0)
		s.mu.Unlock()
	}()
	fn(s.emu.Renderable())
}

// Kill asks the child to terminate. Errors are ignored.
func (s *Session) Kill() {
	s.log.Debug("killing process")
	if err := s.child.Kill(); err != nil {
		s.log.WithError(err).Debug("kill failed")
	}
}

// IsDead reports whether the child has exited. A child whose status can
// not be polled counts as dead. Once dead, a session stays dead.
func (s *Session) IsDead() bool {
	if s.dead.Load() {
		return true
	}
	exited, err := s.child.TryWait()
	if err == nil && !exited {
		return false
	}
	if s.dead.CompareAndSwap(false, true) {
		if err != nil {
			s.log.WithError(err).Error("pane is dead: exit status unknown")
		} else {
			s.log.Error("pane is dead: process exited")
		}
	}
	return true
}

// Feed interprets output read from the child.
func (s *Session) Feed(p []byte) {
	s.lock()
	defer s.mu.Unlock()
	s.emu.AdvanceBytes(p)
}

// MouseEvent forwards a mouse event to the program.
func (s *Session) MouseEvent(ev terminal.MouseEvent) error {
	s.lock()
	defer s.mu.Unlock()
	return s.emu.MouseEvent(ev)
}

// KeyDown forwards a key press to the program.
func (s *Session) KeyDown(key terminal.KeyCode, mods terminal.Modifiers) error {
	s.lock()
	defer s.mu.Unlock()
	return s.emu.KeyDown(key, mods)
}

// Resize resizes the pseudo-terminal and then the emulator. If the
// pseudo-terminal rejects the size, the emulator is left untouched and
// the error wraps ErrResize.
func (s *Session) Resize(size pty.Size) error {
	s.lock()
	defer s.mu.Unlock()

	if !size.Valid() {
		return fmt.Errorf("%w: %w", ErrResize, terminal.ErrInvalidSize)
	}
	if err := s.master.Resize(size); err != nil {
		return fmt.Errorf("%w: %w", ErrResize, err)
	}
	if err := s.emu.Resize(int(size.Rows), int(size.Cols)); err != nil {
		return fmt.Errorf("%w: %w", ErrResize, err)
	}
	s.emu.SetPixelSize(int(size.PixelWidth), int(size.PixelHeight))
	s.log.WithField("size", size).Debug("resized")
	return nil
}

// Writer returns a writer sending raw input to the child. Each Write
// holds the session exclusively, so it never lands inside a reply the
// emulator is writing.
func (s *Session) Writer() io.Writer {
	return sessionWriter{s}
}

type sessionWriter struct {
	s *Session
}

func (w sessionWriter) Write(p []byte) (int, error) {
	w.s.lock()
	defer w.s.mu.Unlock()
	return w.s.master.Write(p)
}

// Reader returns an independent reader of the child's output, suitable
// for a background goroutine. The caller closes it.
func (s *Session) Reader() (io.ReadCloser, error) {
	return s.master.CloneReader()
}

// Paste sends text as a paste, bracketed when the program enabled
// bracketed paste mode.
func (s *Session) Paste(text string) error {
	s.lock()
	defer s.mu.Unlock()
	return s.emu.SendPaste(text)
}

// Title returns the window title set by the program.
func (s *Session) Title() string {
	s.lock()
	defer s.mu.Unlock()
	return s.emu.Title()
}

// Palette returns a copy of the current color palette.
func (s *Session) Palette() terminal.Palette {
	s.lock()
	defer s.mu.Unlock()
	return s.emu.Palette()
}

// SetClipboard registers the destination for OSC 52 copies.
func (s *Session) SetClipboard(c terminal.Clipboard) {
	s.lock()
	defer s.mu.Unlock()
	s.emu.SetClipboard(c)
}

// EraseScrollback discards the scrollback, keeping the visible screen.
func (s *Session) EraseScrollback() {
	s.lock()
	defer s.mu.Unlock()
	s.emu.EraseScrollback()
}

// FocusChanged tells the program whether the pane has focus.
func (s *Session) FocusChanged(focused bool) {
	s.lock()
	defer s.mu.Unlock()
	if err := s.emu.FocusChanged(focused); err != nil {
		s.log.WithError(err).Debug("focus report failed")
	}
}

// IsMouseGrabbed reports whether the program has enabled mouse reporting.
func (s *Session) IsMouseGrabbed() bool {
	s.lock()
	defer s.mu.Unlock()
	return s.emu.IsMouseGrabbed()
}

// CurrentWorkingDir returns the directory reported by the program with
// OSC 7. Otherwise the foreground process group leader is probed. It
// returns nil when neither source knows.
func (s *Session) CurrentWorkingDir() *url.URL {
	s.lock()
	u := s.emu.CurrentDir()
	s.mu.Unlock()
	if u != nil {
		return u
	}

	pid, ok := s.master.ProcessGroupLeader()
	if !ok {
		return nil
	}
	u, ok = s.probe.WorkingDir(pid)
	if !ok {
		return nil
	}
	return u
}

// SemanticZones returns the prompt, input and output zones marked by
// shell integration.
func (s *Session) SemanticZones() ([]terminal.SemanticZone, error) {
	s.lock()
	defer s.mu.Unlock()
	return s.emu.SemanticZones(), nil
}

// Search finds p in the scrollback and screen. Results are in scan order.
func (s *Session) Search(ctx context.Context, p search.Pattern) ([]search.Result, error) {
	s.lock()
	snap := s.emu.Snapshot()
	s.mu.Unlock()
	return search.Search(ctx, snap, p)
}

// Pid returns the process id of the child.
func (s *Session) Pid() int {
	return s.child.Pid()
}

// Close kills the child, waits for it and closes the pseudo-terminal.
// It runs once; later calls return the first result. Kill and wait
// errors are ignored.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.child.Kill(); err != nil {
			s.log.WithError(err).Debug("kill on close failed")
		}
		if err := s.child.Wait(); err != nil {
			s.log.WithError(err).Debug("wait on close")
		}
		s.dead.Store(true)
		s.closeErr = s.master.Close()
		s.log.Debug("closed")
	})
	return s.closeErr
}
