package pane

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/panekit/internal/procinfo"
	"github.com/dshills/panekit/internal/pty"
	"github.com/dshills/panekit/internal/search"
	"github.com/dshills/panekit/internal/terminal"
)

type fakeChild struct {
	mu      sync.Mutex
	exited  bool
	pollErr error
	kills   int
	waits   int
}

func (c *fakeChild) Kill() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kills++
	c.exited = true
	return nil
}

func (c *fakeChild) TryWait() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pollErr != nil {
		return false, c.pollErr
	}
	return c.exited, nil
}

func (c *fakeChild) Wait() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits++
	return nil
}

func (c *fakeChild) Pid() int { return 1234 }

func (c *fakeChild) setExited(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exited = v
}

type fakeMaster struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	sizes     []pty.Size
	resizeErr error
	pgid      int
	closes    int
}

func (m *fakeMaster) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Write(p)
}

func (m *fakeMaster) Resize(size pty.Size) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resizeErr != nil {
		return m.resizeErr
	}
	m.sizes = append(m.sizes, size)
	return nil
}

func (m *fakeMaster) CloneReader() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("output")), nil
}

func (m *fakeMaster) ProcessGroupLeader() (int, bool) {
	return m.pgid, m.pgid > 0
}

func (m *fakeMaster) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func (m *fakeMaster) written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.String()
}

func newTestSession(t *testing.T) (*Session, *fakeChild, *fakeMaster) {
	t.Helper()

	child := &fakeChild{}
	master := &fakeMaster{}
	emu := terminal.New(terminal.Config{Rows: 24, Cols: 80, Scrollback: 100}, master)

	s := New(Config{
		Domain:   NewDomainID(),
		Emulator: emu,
		Child:    child,
		Master:   master,
		Probe:    procinfo.UnsupportedProbe{},
	})
	return s, child, master
}

func dimensions(s *Session) (rows, cols int) {
	s.WithRenderable(func(r terminal.Renderable) {
		rows, cols = r.Dimensions()
	})
	return rows, cols
}

func TestSessionIdentity(t *testing.T) {
	domain := NewDomainID()
	a := New(Config{Domain: domain, Emulator: terminal.New(terminal.Config{}, nil), Child: &fakeChild{}, Master: &fakeMaster{}})
	b := New(Config{Domain: domain, Emulator: terminal.New(terminal.Config{}, nil), Child: &fakeChild{}, Master: &fakeMaster{}})

	if a.ID() == b.ID() {
		t.Errorf("expected distinct pane ids, both %s", a.ID())
	}
	if a.Domain() != domain {
		t.Errorf("expected domain %s, got %s", domain, a.Domain())
	}

	c := New(Config{ID: 99, Emulator: terminal.New(terminal.Config{}, nil), Child: &fakeChild{}, Master: &fakeMaster{}})
	if c.ID() != 99 {
		t.Errorf("expected explicit id 99, got %s", c.ID())
	}
}

func TestNextPaneIDConcurrent(t *testing.T) {
	const n = 100
	ids := make(chan PaneID, n)

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- NextPaneID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[PaneID]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate pane id %s", id)
		}
		seen[id] = true
	}
}

func TestSessionResize(t *testing.T) {
	s, _, master := newTestSession(t)

	if err := s.Resize(pty.Size{Rows: 40, Cols: 100}); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	if len(master.sizes) != 1 || master.sizes[0].Rows != 40 || master.sizes[0].Cols != 100 {
		t.Errorf("expected master resized to 100x40, got %v", master.sizes)
	}
	if rows, cols := dimensions(s); rows != 40 || cols != 100 {
		t.Errorf("expected emulator 40x100, got %dx%d", rows, cols)
	}
}

func TestSessionResizeMasterFailure(t *testing.T) {
	s, _, master := newTestSession(t)
	master.resizeErr = errors.New("ioctl failed")

	err := s.Resize(pty.Size{Rows: 10, Cols: 10})
	if !errors.Is(err, ErrResize) {
		t.Fatalf("expected ErrResize, got %v", err)
	}
	if !errors.Is(err, master.resizeErr) {
		t.Errorf("expected cause to be wrapped, got %v", err)
	}
	if rows, cols := dimensions(s); rows != 24 || cols != 80 {
		t.Errorf("expected geometry unchanged at 24x80, got %dx%d", rows, cols)
	}
	if s.IsDead() {
		t.Error("expected pane to stay alive after a failed resize")
	}
}

func TestSessionResizeInvalid(t *testing.T) {
	s, _, master := newTestSession(t)

	err := s.Resize(pty.Size{Rows: 0, Cols: 10})
	if !errors.Is(err, ErrResize) || !errors.Is(err, terminal.ErrInvalidSize) {
		t.Fatalf("expected ErrResize wrapping ErrInvalidSize, got %v", err)
	}
	if len(master.sizes) != 0 {
		t.Errorf("expected master untouched, got %v", master.sizes)
	}
}

func TestSessionIsDead(t *testing.T) {
	s, child, _ := newTestSession(t)

	if s.IsDead() {
		t.Fatal("expected running child to be alive")
	}

	child.setExited(true)
	if !s.IsDead() {
		t.Fatal("expected exited child to be dead")
	}

	// Dead is sticky even if the child handle stops saying so.
	child.setExited(false)
	if !s.IsDead() {
		t.Error("expected dead to be sticky")
	}
}

func TestSessionIsDeadPollFailure(t *testing.T) {
	s, child, _ := newTestSession(t)
	child.pollErr = errors.New("wait failed")

	if !s.IsDead() {
		t.Error("expected a failed poll to report dead")
	}
}

func TestSessionCloseReapsOnce(t *testing.T) {
	tests := []struct {
		name       string
		killFirst  bool
		observeEnd bool
	}{
		{"without kill", false, false},
		{"after kill", true, false},
		{"after observed exit", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, child, master := newTestSession(t)
			if tt.killFirst {
				s.Kill()
			}
			if tt.observeEnd {
				child.setExited(true)
				_ = s.IsDead()
			}

			if err := s.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			_ = s.Close()

			if child.waits != 1 {
				t.Errorf("expected exactly one wait, got %d", child.waits)
			}
			if master.closes != 1 {
				t.Errorf("expected master closed once, got %d", master.closes)
			}
			if !s.IsDead() {
				t.Error("expected closed pane to be dead")
			}
		})
	}
}

func TestSessionReentrantAccessPanics(t *testing.T) {
	s, _, _ := newTestSession(t)

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		s.WithRenderable(func(terminal.Renderable) {
			s.Feed([]byte("x"))
		})
	}()

	if recovered != ErrReentrantAccess {
		t.Fatalf("expected ErrReentrantAccess panic, got %v", recovered)
	}

	// The view is released after the panic unwinds.
	s.Feed([]byte("ok"))
	var line string
	s.WithRenderable(func(r terminal.Renderable) {
		line = r.VisibleLines()[0].Text()
	})
	if !strings.HasPrefix(line, "ok") {
		t.Errorf("expected 'ok' on the first line, got %q", line)
	}
}

func TestSessionProcessOpsAllowedDuringView(t *testing.T) {
	s, child, _ := newTestSession(t)

	s.WithRenderable(func(terminal.Renderable) {
		if s.IsDead() {
			t.Error("expected live pane")
		}
		if s.Pid() != 1234 {
			t.Errorf("expected pid 1234, got %d", s.Pid())
		}
		s.Kill()
	})

	if child.kills != 1 {
		t.Errorf("expected one kill, got %d", child.kills)
	}
}

func TestSessionWriterReentryPanics(t *testing.T) {
	s, _, master := newTestSession(t)

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		s.WithRenderable(func(terminal.Renderable) {
			_, _ = s.Writer().Write([]byte("in"))
		})
	}()

	if recovered != ErrReentrantAccess {
		t.Fatalf("expected ErrReentrantAccess panic, got %v", recovered)
	}
	if got := master.written(); got != "" {
		t.Errorf("expected nothing written, got %q", got)
	}

	if _, err := s.Writer().Write([]byte("in")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := master.written(); got != "in" {
		t.Errorf("expected 'in' written, got %q", got)
	}
}

func TestSessionOtherGoroutinesWaitForView(t *testing.T) {
	s, _, master := newTestSession(t)

	held := make(chan struct{})
	release := make(chan struct{})
	viewDone := make(chan struct{})
	go func() {
		defer close(viewDone)
		s.WithRenderable(func(terminal.Renderable) {
			close(held)
			<-release
		})
	}()
	<-held

	panics := make(chan any, 2)
	titled := make(chan string, 1)
	written := make(chan struct{})
	go func() {
		defer func() {
			if r := recover(); r != nil {
				panics <- r
			}
		}()
		s.Feed([]byte("\x1b]2;late\x07"))
		titled <- s.Title()
	}()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				panics <- r
			}
		}()
		if _, err := s.Writer().Write([]byte("x")); err != nil {
			t.Errorf("Write failed: %v", err)
		}
		close(written)
	}()

	select {
	case r := <-panics:
		t.Fatalf("expected other goroutines to wait, got panic %v", r)
	case <-titled:
		t.Fatal("expected Title to wait for the view")
	case <-written:
		t.Fatal("expected Write to wait for the view")
	case <-time.After(50 * time.Millisecond):
	}
	if got := master.written(); got != "" {
		t.Errorf("expected nothing written while the view is held, got %q", got)
	}

	close(release)
	<-viewDone

	timeout := time.After(5 * time.Second)
	select {
	case title := <-titled:
		if title != "late" {
			t.Errorf("expected title 'late', got %q", title)
		}
	case r := <-panics:
		t.Fatalf("unexpected panic %v", r)
	case <-timeout:
		t.Fatal("Title never returned")
	}
	select {
	case <-written:
	case r := <-panics:
		t.Fatalf("unexpected panic %v", r)
	case <-timeout:
		t.Fatal("Write never returned")
	}
	if got := master.written(); got != "x" {
		t.Errorf("expected 'x' written, got %q", got)
	}
}

func TestSessionConcurrentResize(t *testing.T) {
	s, _, master := newTestSession(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			size := pty.Size{Rows: uint16(10 + i), Cols: uint16(40 + i)}
			if err := s.Resize(size); err != nil {
				t.Errorf("Resize(%s) failed: %v", size, err)
			}
		}()
		go func() {
			defer wg.Done()
			s.WithRenderable(func(r terminal.Renderable) {
				_ = r.VisibleLines()
			})
		}()
	}
	wg.Wait()

	master.mu.Lock()
	last := master.sizes[len(master.sizes)-1]
	n := len(master.sizes)
	master.mu.Unlock()

	if n != 20 {
		t.Errorf("expected 20 pty resizes, got %d", n)
	}
	if rows, cols := dimensions(s); rows != int(last.Rows) || cols != int(last.Cols) {
		t.Errorf("expected emulator to match last pty size %s, got %dx%d", last, cols, rows)
	}
}

func TestSessionResizeCarriesPixels(t *testing.T) {
	s, _, master := newTestSession(t)

	if err := s.Resize(pty.Size{Rows: 24, Cols: 80, PixelWidth: 800, PixelHeight: 480}); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	s.Feed([]byte("\x1b[14t"))

	if got := master.written(); got != "\x1b[4;480;800t" {
		t.Errorf("expected pixel report, got %q", got)
	}
}

func TestSessionFeedAndTitle(t *testing.T) {
	s, _, _ := newTestSession(t)

	s.Feed([]byte("\x1b]2;build\x07"))

	if got := s.Title(); got != "build" {
		t.Errorf("expected title 'build', got %q", got)
	}
}

func TestSessionKeyDownAndPaste(t *testing.T) {
	s, _, master := newTestSession(t)

	if err := s.KeyDown(terminal.Char('a'), terminal.ModCtrl); err != nil {
		t.Fatalf("KeyDown failed: %v", err)
	}
	s.Feed([]byte("\x1b[?2004h"))
	if err := s.Paste("hi"); err != nil {
		t.Fatalf("Paste failed: %v", err)
	}

	if got, want := master.written(), "\x01\x1b[200~hi\x1b[201~"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSessionMouseAndFocus(t *testing.T) {
	s, _, master := newTestSession(t)

	if s.IsMouseGrabbed() {
		t.Error("expected mouse not grabbed initially")
	}
	s.Feed([]byte("\x1b[?1000h\x1b[?1006h\x1b[?1004h"))
	if !s.IsMouseGrabbed() {
		t.Error("expected mouse grabbed after mode 1000")
	}

	ev := terminal.MouseEvent{Kind: terminal.MousePress, Button: terminal.MouseLeft, X: 2, Y: 3}
	if err := s.MouseEvent(ev); err != nil {
		t.Fatalf("MouseEvent failed: %v", err)
	}
	s.FocusChanged(true)

	if got, want := master.written(), "\x1b[<0;3;4M\x1b[I"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSessionCurrentWorkingDir(t *testing.T) {
	probed := &url.URL{Scheme: "file", Host: "localhost", Path: "/probed"}
	var probedPid int
	probe := procinfo.ProbeFunc(func(pid int) (*url.URL, bool) {
		probedPid = pid
		return probed, true
	})

	t.Run("reported by program", func(t *testing.T) {
		s, _, master := newTestSession(t)
		s.probe = probe
		master.pgid = 42

		s.Feed([]byte("\x1b]7;file://host/reported\x07"))

		u := s.CurrentWorkingDir()
		if u == nil || u.Path != "/reported" {
			t.Errorf("expected /reported, got %v", u)
		}
	})

	t.Run("probed", func(t *testing.T) {
		s, _, master := newTestSession(t)
		s.probe = probe
		master.pgid = 42

		u := s.CurrentWorkingDir()
		if u == nil || u.Path != "/probed" {
			t.Errorf("expected /probed, got %v", u)
		}
		if probedPid != 42 {
			t.Errorf("expected probe of pgid 42, got %d", probedPid)
		}
	})

	t.Run("no process group", func(t *testing.T) {
		s, _, _ := newTestSession(t)
		s.probe = probe

		if u := s.CurrentWorkingDir(); u != nil {
			t.Errorf("expected nil, got %v", u)
		}
	})

	t.Run("probe miss", func(t *testing.T) {
		s, _, master := newTestSession(t)
		master.pgid = 42

		if u := s.CurrentWorkingDir(); u != nil {
			t.Errorf("expected nil, got %v", u)
		}
	})
}

func TestSessionSearch(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Feed([]byte("one\r\nTwo two\r\n"))

	got, err := s.Search(context.Background(), search.Pattern{Kind: search.CaseInsensitive, Text: "two"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %+v", got)
	}
	if got[0].StartX != 0 || got[0].StartY != 1 || got[1].StartX != 4 {
		t.Errorf("unexpected results %+v", got)
	}
}

func TestSessionEraseScrollbackAndZones(t *testing.T) {
	s, _, _ := newTestSession(t)
	for range 30 {
		s.Feed([]byte("line\r\n"))
	}
	s.Feed([]byte("\x1b]133;A\x07$ "))

	zones, err := s.SemanticZones()
	if err != nil {
		t.Fatalf("SemanticZones failed: %v", err)
	}
	if len(zones) != 1 || zones[0].Type != terminal.SemanticPrompt {
		t.Errorf("expected one prompt zone, got %+v", zones)
	}

	s.EraseScrollback()
	got, _ := s.Search(context.Background(), search.Pattern{Kind: search.CaseSensitive, Text: "line"})
	// 23 visible rows still hold "line"; the 7 scrolled off are gone.
	if len(got) != 23 {
		t.Errorf("expected 23 visible matches after erase, got %d", len(got))
	}
}

func TestSessionSetClipboard(t *testing.T) {
	s, _, _ := newTestSession(t)
	clip := &recordingClipboard{}
	s.SetClipboard(clip)

	s.Feed([]byte("\x1b]52;c;aGk=\x07"))

	if clip.text != "hi" {
		t.Errorf("expected 'hi' copied, got %q", clip.text)
	}
}

type recordingClipboard struct {
	text string
}

func (c *recordingClipboard) SetContents(_ terminal.ClipboardSelection, text string) error {
	c.text = text
	return nil
}

func TestSessionReader(t *testing.T) {
	s, _, _ := newTestSession(t)

	r, err := s.Reader()
	if err != nil {
		t.Fatalf("Reader failed: %v", err)
	}
	defer r.Close()

	out := make(chan []byte, 4)
	if err := ReadOutput(r, out); err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	close(out)

	var got []byte
	for chunk := range out {
		got = append(got, chunk...)
	}
	if string(got) != "output" {
		t.Errorf("expected 'output', got %q", got)
	}
}

func TestSessionPalette(t *testing.T) {
	s, _, _ := newTestSession(t)
	before := s.Palette()

	s.Feed([]byte("\x1b]4;1;#010203\x07"))

	after := s.Palette()
	if after.Colors[1] == before.Colors[1] {
		t.Error("expected palette entry 1 to change")
	}
}
