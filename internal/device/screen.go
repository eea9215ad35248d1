package device

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
	"github.com/sirupsen/logrus"

	"github.com/dshills/panekit/internal/logging"
	"github.com/dshills/panekit/internal/terminal"
)

// Screen is a Device backed by a tcell screen. The screen is initialized
// by the first SetRawMode; until then it is in cooked mode.
type Screen struct {
	mu      sync.Mutex
	screen  tcell.Screen
	log     *logrus.Entry
	mode    Mode
	started bool
	closed  bool

	style         tcell.Style
	x, y          int
	cursorVisible bool

	buttons tcell.ButtonMask
	paste   *strings.Builder
}

// NewScreen creates a device on the terminal tcell selects.
func NewScreen(logger *logrus.Entry) (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("new screen: %w", err)
	}
	return NewScreenFrom(s, logger), nil
}

// NewScreenFrom wraps an uninitialized tcell screen.
func NewScreenFrom(s tcell.Screen, logger *logrus.Entry) *Screen {
	return &Screen{
		screen:        s,
		log:           logging.Component(logger, "device"),
		mode:          ModeCooked,
		style:         tcell.StyleDefault,
		cursorVisible: true,
	}
}

func (s *Screen) SetRawMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.mode == ModeRaw {
		return nil
	}
	if !s.started {
		if err := s.screen.Init(); err != nil {
			return fmt.Errorf("set raw mode: %w", err)
		}
		s.screen.EnableMouse()
		s.screen.EnablePaste()
		s.screen.EnableFocus()
		s.started = true
	} else if err := s.screen.Resume(); err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	s.mode = ModeRaw
	return nil
}

func (s *Screen) SetCookedMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.mode == ModeCooked {
		return nil
	}
	if err := s.screen.Suspend(); err != nil {
		return fmt.Errorf("set cooked mode: %w", err)
	}
	s.mode = ModeCooked
	return nil
}

func (s *Screen) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Screen) ScreenSize() (ScreenSize, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ScreenSize{}, ErrNotStarted
	}
	w, h := s.screen.Size()
	return ScreenSize{Rows: h, Cols: w}, nil
}

// SetScreenSize asks the terminal to resize. Only some terminals honor
// it; pixel dimensions are ignored.
func (s *Screen) SetScreenSize(size ScreenSize) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	s.screen.SetSize(size.Cols, size.Rows)
	return nil
}

func (s *Screen) Render(changes []Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.started {
		return ErrNotStarted
	}
	for _, c := range changes {
		switch c := c.(type) {
		case CursorPosition:
			s.x, s.y = c.X, c.Y
		case SetStyle:
			s.style = convertStyle(c.Style)
		case Text:
			s.drawText(string(c))
		case ClearScreen:
			s.screen.SetStyle(tcell.StyleDefault)
			s.screen.Clear()
			s.x, s.y = 0, 0
		case CursorVisibility:
			s.cursorVisible = bool(c)
		case Title:
			s.screen.SetTitle(string(c))
		default:
			return fmt.Errorf("render: unknown change %T", c)
		}
	}
	return nil
}

// drawText places text one grapheme per cell starting at the cursor,
// wrapping at the right edge.
func (s *Screen) drawText(text string) {
	width, _ := s.screen.Size()
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		switch cluster {
		case "\r":
			s.x = 0
			continue
		case "\n", "\r\n":
			s.x = 0
			s.y++
			continue
		}

		runes := g.Runes()
		w := g.Width()
		if w == 0 {
			continue
		}
		if width > 0 && s.x+w > width {
			s.x = 0
			s.y++
		}
		s.screen.SetContent(s.x, s.y, runes[0], runes[1:], s.style)
		s.x += w
	}
}

func (s *Screen) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.started {
		return ErrNotStarted
	}
	if s.cursorVisible {
		s.screen.ShowCursor(s.x, s.y)
	} else {
		s.screen.HideCursor()
	}
	s.screen.Show()
	return nil
}

func (s *Screen) PollInput(blocking Blocking) (*InputEvent, error) {
	s.mu.Lock()
	closed, started := s.closed, s.started
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if !started {
		return nil, ErrNotStarted
	}

	for {
		if blocking == DoNotWait && !s.screen.HasPendingEvent() {
			return nil, nil
		}
		ev := s.screen.PollEvent()
		if ev == nil {
			return nil, ErrClosed
		}
		if out, ok := s.convertEvent(ev); ok {
			return out, nil
		}
	}
}

// Close finalizes the screen, restoring the terminal. It is safe to call
// more than once.
func (s *Screen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.started {
		s.screen.Fini()
	}
	return nil
}

// convertEvent converts a tcell event. Keys between the start and end of
// a bracketed paste are collected into a single paste event.
func (s *Screen) convertEvent(ev tcell.Event) (*InputEvent, bool) {
	switch e := ev.(type) {
	case *tcell.EventPaste:
		if e.Start() {
			s.paste = &strings.Builder{}
			return nil, false
		}
		if s.paste == nil {
			return nil, false
		}
		text := s.paste.String()
		s.paste = nil
		return &InputEvent{Kind: EventPaste, Text: text}, true

	case *tcell.EventKey:
		if s.paste != nil {
			switch e.Key() {
			case tcell.KeyRune:
				s.paste.WriteRune(e.Rune())
			case tcell.KeyEnter:
				s.paste.WriteByte('\r')
			case tcell.KeyTab:
				s.paste.WriteByte('\t')
			}
			return nil, false
		}
		key, mods, ok := convertKey(e)
		if !ok {
			s.log.WithField("key", e.Name()).Debug("unmapped key")
			return nil, false
		}
		out := keyEvent(key, mods)
		return &out, true

	case *tcell.EventMouse:
		out := InputEvent{Kind: EventMouse, Mouse: s.convertMouse(e)}
		return &out, true

	case *tcell.EventResize:
		w, h := e.Size()
		return &InputEvent{Kind: EventResize, Size: ScreenSize{Rows: h, Cols: w}}, true

	case *tcell.EventFocus:
		return &InputEvent{Kind: EventFocus, Focused: e.Focused}, true
	}
	return nil, false
}

// convertMouse derives press, release and motion from the change in held
// buttons, since tcell reports only the current button state.
func (s *Screen) convertMouse(e *tcell.EventMouse) terminal.MouseEvent {
	x, y := e.Position()
	btns := e.Buttons()
	prev := s.buttons

	ev := terminal.MouseEvent{X: x, Y: y, Modifiers: convertMod(e.Modifiers())}
	switch {
	case btns&tcell.WheelUp != 0:
		ev.Kind, ev.Button = terminal.MousePress, terminal.MouseWheelUp
		return ev
	case btns&tcell.WheelDown != 0:
		ev.Kind, ev.Button = terminal.MousePress, terminal.MouseWheelDown
		return ev
	}

	held := btns & (tcell.ButtonPrimary | tcell.ButtonMiddle | tcell.ButtonSecondary)
	s.buttons = held
	switch {
	case held&^prev != 0:
		ev.Kind, ev.Button = terminal.MousePress, convertButton(held&^prev)
	case prev&^held != 0:
		ev.Kind, ev.Button = terminal.MouseRelease, convertButton(prev&^held)
	default:
		ev.Kind, ev.Button = terminal.MouseMove, convertButton(held)
	}
	return ev
}

func convertButton(b tcell.ButtonMask) terminal.MouseButton {
	switch {
	case b&tcell.ButtonPrimary != 0:
		return terminal.MouseLeft
	case b&tcell.ButtonMiddle != 0:
		return terminal.MouseMiddle
	case b&tcell.ButtonSecondary != 0:
		return terminal.MouseRight
	default:
		return terminal.MouseNone
	}
}

func convertMod(m tcell.ModMask) terminal.Modifiers {
	var mods terminal.Modifiers
	if m&tcell.ModShift != 0 {
		mods |= terminal.ModShift
	}
	if m&tcell.ModAlt != 0 {
		mods |= terminal.ModAlt
	}
	if m&tcell.ModCtrl != 0 {
		mods |= terminal.ModCtrl
	}
	if m&tcell.ModMeta != 0 {
		mods |= terminal.ModSuper
	}
	return mods
}

var namedKeys = map[tcell.Key]terminal.KeyCode{
	tcell.KeyEnter:  terminal.KeyEnter,
	tcell.KeyTab:    terminal.KeyTab,
	tcell.KeyEscape: terminal.KeyEscape,
	tcell.KeyUp:     terminal.KeyUp,
	tcell.KeyDown:   terminal.KeyDown,
	tcell.KeyRight:  terminal.KeyRight,
	tcell.KeyLeft:   terminal.KeyLeft,
	tcell.KeyHome:   terminal.KeyHome,
	tcell.KeyEnd:    terminal.KeyEnd,
	tcell.KeyInsert: terminal.KeyInsert,
	tcell.KeyDelete: terminal.KeyDelete,
	tcell.KeyPgUp:   terminal.KeyPageUp,
	tcell.KeyPgDn:   terminal.KeyPageDown,
	tcell.KeyF1:     terminal.KeyF1,
	tcell.KeyF2:     terminal.KeyF2,
	tcell.KeyF3:     terminal.KeyF3,
	tcell.KeyF4:     terminal.KeyF4,
	tcell.KeyF5:     terminal.KeyF5,
	tcell.KeyF6:     terminal.KeyF6,
	tcell.KeyF7:     terminal.KeyF7,
	tcell.KeyF8:     terminal.KeyF8,
	tcell.KeyF9:     terminal.KeyF9,
	tcell.KeyF10:    terminal.KeyF10,
	tcell.KeyF11:    terminal.KeyF11,
	tcell.KeyF12:    terminal.KeyF12,
}

// convertKey maps a tcell key event. Control characters tcell reports as
// their own keys become the letter with ModCtrl.
func convertKey(e *tcell.EventKey) (terminal.KeyCode, terminal.Modifiers, bool) {
	k := e.Key()
	mods := convertMod(e.Modifiers())

	switch {
	case k == tcell.KeyRune:
		return terminal.Char(e.Rune()), mods, true
	case k == tcell.KeyBacktab:
		return terminal.KeyTab, mods | terminal.ModShift, true
	case k == tcell.KeyBackspace2:
		return terminal.KeyBackspace, mods, true
	case k == tcell.KeyBackspace:
		// ^H
		return terminal.KeyBackspace, mods | terminal.ModCtrl, true
	}
	if code, ok := namedKeys[k]; ok {
		return code, mods, true
	}
	switch {
	case k == tcell.KeyCtrlSpace:
		return terminal.Char(' '), mods | terminal.ModCtrl, true
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return terminal.Char(rune('a' + k - tcell.KeyCtrlA)), mods | terminal.ModCtrl, true
	case k >= tcell.KeyCtrlBackslash && k <= tcell.KeyCtrlUnderscore:
		return terminal.Char(rune('\\' + k - tcell.KeyCtrlBackslash)), mods | terminal.ModCtrl, true
	}
	return 0, 0, false
}

// convertStyle converts a device style to a tcell style.
func convertStyle(st Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(convertColor(st.Foreground)).
		Background(convertColor(st.Background))

	a := st.Attributes
	return style.
		Bold(a.Has(terminal.AttrBold)).
		Dim(a.Has(terminal.AttrDim)).
		Italic(a.Has(terminal.AttrItalic)).
		Underline(a.Has(terminal.AttrUnderline)).
		Blink(a.Has(terminal.AttrBlink)).
		Reverse(a.Has(terminal.AttrReverse)).
		StrikeThrough(a.Has(terminal.AttrStrike))
}

func convertColor(c terminal.Color) tcell.Color {
	switch {
	case c.Default:
		return tcell.ColorDefault
	case c.Index >= 0:
		return tcell.PaletteColor(c.Index)
	default:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}
}

var _ Device = (*Screen)(nil)
