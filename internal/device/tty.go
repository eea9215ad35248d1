//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package device

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/x/ansi"
	creackpty "github.com/creack/pty"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/dshills/panekit/internal/logging"
)

const eventQueueSize = 64

// TTY is a Device backed by a unix tty.
type TTY struct {
	in, out *os.File
	fd      int
	owned   bool
	orig    *term.State
	log     *logrus.Entry

	// reader is a non-blocking duplicate of fd owned by the input
	// goroutine. wasBlocking records the flag to put back on Close.
	reader      *os.File
	wasBlocking bool

	mu   sync.Mutex
	mode Mode
	w    *bufio.Writer

	events    chan InputEvent
	done      chan struct{}
	inputDone chan struct{}
	inputErr  error
	winch     chan os.Signal
	closeOnce sync.Once
	closeErr  error
}

// OpenTTY opens the controlling terminal of the process.
func OpenTTY(logger *logrus.Entry) (*TTY, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open tty: %w", err)
	}
	t, err := NewTTY(f, f, logger)
	if err != nil {
		f.Close()
		return nil, err
	}
	t.owned = true
	return t, nil
}

// NewTTY creates a device reading from in and writing to out. in must be
// a terminal; its current state is restored on Close. The files are not
// closed by Close.
//
// Input is read from a non-blocking duplicate of in so that Close stops
// the reader even when in is a blocking file such as os.Stdin. The
// non-blocking flag is shared with in until Close puts it back.
func NewTTY(in, out *os.File, logger *logrus.Entry) (*TTY, error) {
	fd, err := fileDescriptor(in)
	if err != nil {
		return nil, err
	}
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%w: %s", ErrNotTerminal, in.Name())
	}
	orig, err := term.GetState(fd)
	if err != nil {
		return nil, fmt.Errorf("get terminal state: %w", err)
	}
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, fmt.Errorf("get termios: %w", err)
	}
	reader, wasBlocking, err := inputFile(fd, in.Name())
	if err != nil {
		return nil, err
	}
	t := &TTY{
		in:          in,
		out:         out,
		fd:          fd,
		orig:        orig,
		reader:      reader,
		wasBlocking: wasBlocking,
		log:       logging.Component(logging.OrDiscard(logger), "device"),
		mode:      ModeRaw,
		w:         bufio.NewWriter(out),
		events:    make(chan InputEvent, eventQueueSize),
		done:      make(chan struct{}),
		inputDone: make(chan struct{}),
		winch:     make(chan os.Signal, 1),
	}
	if termios.Lflag&unix.ICANON != 0 {
		t.mode = ModeCooked
	}

	signal.Notify(t.winch, syscall.SIGWINCH)
	go t.readLoop()
	go t.resizeLoop()
	return t, nil
}

// fileDescriptor returns the descriptor of f without switching it to
// blocking mode, so Close can interrupt a pending Read.
func fileDescriptor(f *os.File) (int, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return -1, err
	}
	fd := -1
	if err := rc.Control(func(s uintptr) { fd = int(s) }); err != nil {
		return -1, err
	}
	return fd, nil
}

// inputFile duplicates fd and switches the duplicate to non-blocking mode,
// which registers it with the runtime poller. It reports whether fd was
// blocking before.
func inputFile(fd int, name string) (*os.File, bool, error) {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return nil, false, fmt.Errorf("get file flags: %w", err)
	}
	dup, err := unix.Dup(fd)
	if err != nil {
		return nil, false, fmt.Errorf("dup tty: %w", err)
	}
	unix.CloseOnExec(dup)
	if err := unix.SetNonblock(dup, true); err != nil {
		unix.Close(dup)
		return nil, false, fmt.Errorf("set non-blocking: %w", err)
	}
	return os.NewFile(uintptr(dup), name), flags&unix.O_NONBLOCK == 0, nil
}

func (t *TTY) SetRawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := term.MakeRaw(t.fd); err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	t.mode = ModeRaw
	return nil
}

func (t *TTY) SetCookedMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	termios, err := unix.IoctlGetTermios(t.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("set cooked mode: %w", err)
	}
	termios.Iflag |= unix.ICRNL | unix.BRKINT
	termios.Oflag |= unix.OPOST | unix.ONLCR
	termios.Lflag |= unix.ECHO | unix.ECHOE | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag |= unix.CS8
	if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, termios); err != nil {
		return fmt.Errorf("set cooked mode: %w", err)
	}
	t.mode = ModeCooked
	return nil
}

func (t *TTY) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

func (t *TTY) ScreenSize() (ScreenSize, error) {
	ws, err := creackpty.GetsizeFull(t.in)
	if err != nil {
		return ScreenSize{}, fmt.Errorf("get screen size: %w", err)
	}
	return ScreenSize{
		Rows:        int(ws.Rows),
		Cols:        int(ws.Cols),
		PixelWidth:  int(ws.X),
		PixelHeight: int(ws.Y),
	}, nil
}

// SetScreenSize sets the tty window size. Terminal emulators usually
// ignore this for the tty they own; it takes effect on pty slaves.
func (t *TTY) SetScreenSize(size ScreenSize) error {
	err := creackpty.Setsize(t.in, &creackpty.Winsize{
		Rows: uint16(size.Rows),
		Cols: uint16(size.Cols),
		X:    uint16(size.PixelWidth),
		Y:    uint16(size.PixelHeight),
	})
	if err != nil {
		return fmt.Errorf("set screen size: %w", err)
	}
	return nil
}

func (t *TTY) Render(changes []Change) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isClosed() {
		return ErrClosed
	}
	for _, c := range changes {
		var seq string
		switch c := c.(type) {
		case CursorPosition:
			seq = ansi.CursorPosition(c.X+1, c.Y+1)
		case SetStyle:
			seq = sgr(c.Style)
		case Text:
			seq = string(c)
		case ClearScreen:
			seq = ansi.ResetStyle + ansi.EraseEntireScreen + ansi.CursorPosition(1, 1)
		case CursorVisibility:
			if c {
				seq = ansi.ShowCursor
			} else {
				seq = ansi.HideCursor
			}
		case Title:
			seq = ansi.SetWindowTitle(string(c))
		default:
			return fmt.Errorf("render: unknown change %T", c)
		}
		if _, err := t.w.WriteString(seq); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	return nil
}

func (t *TTY) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (t *TTY) PollInput(blocking Blocking) (*InputEvent, error) {
	select {
	case ev := <-t.events:
		return &ev, nil
	case <-t.done:
		return nil, ErrClosed
	default:
	}
	if blocking == DoNotWait {
		return nil, nil
	}

	select {
	case ev := <-t.events:
		return &ev, nil
	case <-t.done:
		return nil, ErrClosed
	case <-t.inputDone:
		select {
		case ev := <-t.events:
			return &ev, nil
		default:
		}
		return nil, fmt.Errorf("read input: %w", t.inputErr)
	}
}

// Close restores the terminal state captured by NewTTY. It is safe to
// call more than once.
func (t *TTY) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		signal.Stop(t.winch)

		t.mu.Lock()
		var errs []error
		if err := t.w.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush: %w", err))
		}
		if err := term.Restore(t.fd, t.orig); err != nil {
			errs = append(errs, fmt.Errorf("restore terminal: %w", err))
		}
		t.mu.Unlock()

		if err := t.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input: %w", err))
		}
		<-t.inputDone
		if t.wasBlocking {
			if err := unix.SetNonblock(t.fd, false); err != nil {
				errs = append(errs, fmt.Errorf("restore blocking mode: %w", err))
			}
		}

		if t.owned {
			if err := t.in.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		t.closeErr = errors.Join(errs...)
	})
	return t.closeErr
}

func (t *TTY) isClosed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *TTY) send(ev InputEvent) bool {
	select {
	case t.events <- ev:
		return true
	case <-t.done:
		return false
	}
}

func (t *TTY) readLoop() {
	defer close(t.inputDone)

	var dec decoder
	buf := make([]byte, 4096)
	for {
		n, err := t.reader.Read(buf)
		for _, ev := range dec.feed(buf[:n]) {
			if !t.send(ev) {
				t.inputErr = ErrClosed
				return
			}
		}
		if err != nil {
			if t.isClosed() || errors.Is(err, os.ErrClosed) {
				t.inputErr = ErrClosed
				return
			}
			t.log.WithError(err).Debug("input reader stopped")
			t.inputErr = err
			return
		}
	}
}

func (t *TTY) resizeLoop() {
	for {
		select {
		case <-t.done:
			return
		case <-t.winch:
			size, err := t.ScreenSize()
			if err != nil {
				t.log.WithError(err).Warn("resize")
				continue
			}
			if !t.send(InputEvent{Kind: EventResize, Size: size}) {
				return
			}
		}
	}
}

var _ Device = (*TTY)(nil)
