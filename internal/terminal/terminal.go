package terminal

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"

	"github.com/dshills/panekit/internal/logging"
)

// ClipboardSelection names the clipboard an OSC 52 sequence targets.
type ClipboardSelection int

const (
	SelectionClipboard ClipboardSelection = iota
	SelectionPrimary
)

// Clipboard receives text programs copy with OSC 52.
type Clipboard interface {
	SetContents(sel ClipboardSelection, text string) error
}

// Config configures a Terminal.
type Config struct {
	// Rows and Cols are the initial geometry (default 24x80).
	Rows, Cols int

	// PixelWidth and PixelHeight are the text area size in pixels, zero
	// when unknown.
	PixelWidth, PixelHeight int

	// Scrollback is the number of history lines (default 10000).
	Scrollback int

	// Logger receives diagnostics about unhandled sequences.
	Logger *logrus.Entry
}

// Terminal is a virtual terminal: it interprets program output into a
// screen grid with scrollback and encodes user input for the program.
//
// Responses (key encodings, paste, focus and status reports) are written
// to the io.Writer passed to New, which is normally the pty master.
type Terminal struct {
	w   io.Writer
	log *logrus.Entry

	primary   *Screen
	alternate *Screen
	history   *History
	parser    *Parser
	altActive bool

	pixelWidth  int
	pixelHeight int

	title     string
	palette   Palette
	cwd       *url.URL
	clipboard Clipboard
	zones     zoneTracker

	appCursor      bool
	bracketedPaste bool
	focusReporting bool
	sgrMouse       bool
	mouse          mouseTracking
}

// New creates a terminal writing responses to w. A nil w discards them.
func New(cfg Config, w io.Writer) *Terminal {
	if cfg.Cols <= 0 {
		cfg.Cols = 80
	}
	if cfg.Rows <= 0 {
		cfg.Rows = 24
	}
	if w == nil {
		w = io.Discard
	}

	history := NewHistory(cfg.Scrollback)
	primary := newScreenWithHistory(cfg.Cols, cfg.Rows, history)

	t := &Terminal{
		w:         w,
		log:       logging.Component(cfg.Logger, "terminal"),
		primary:   primary,
		alternate: NewScreen(cfg.Cols, cfg.Rows),
		history:   history,
		parser:    NewParser(primary),
		palette:   DefaultPalette(),

		pixelWidth:  cfg.PixelWidth,
		pixelHeight: cfg.PixelHeight,
	}

	t.parser.SetTitleCallback(func(title string) { t.title = title })
	t.parser.SetOSCCallback(t.handleOSC)
	t.parser.SetModeCallback(t.setMode)
	t.parser.SetReplyCallback(func(seq string) {
		if err := t.respond(seq); err != nil {
			t.log.WithError(err).Debug("status reply failed")
		}
	})
	t.parser.SetWindowOpCallback(t.reportWindow)
	t.parser.SetUnknownCallback(func(seq string) {
		t.log.WithField("seq", seq).Debug("unhandled sequence")
	})

	return t
}

// AdvanceBytes interprets a chunk of program output.
func (t *Terminal) AdvanceBytes(p []byte) {
	t.parser.Parse(p)
}

// Write implements io.Writer over AdvanceBytes.
func (t *Terminal) Write(p []byte) (int, error) {
	t.AdvanceBytes(p)
	return len(p), nil
}

// Screen returns the active screen.
func (t *Terminal) Screen() *Screen {
	if t.altActive {
		return t.alternate
	}
	return t.primary
}

// History returns the scrollback history.
func (t *Terminal) History() *History {
	return t.history
}

// Resize changes the screen geometry.
func (t *Terminal) Resize(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cols, rows)
	}
	t.primary.Resize(cols, rows)
	t.alternate.Resize(cols, rows)
	return nil
}

// SetPixelSize records the text area size in pixels. Zero means unknown.
func (t *Terminal) SetPixelSize(width, height int) {
	t.pixelWidth = max(width, 0)
	t.pixelHeight = max(height, 0)
}

// PixelSize returns the text area size in pixels.
func (t *Terminal) PixelSize() (width, height int) {
	return t.pixelWidth, t.pixelHeight
}

// reportWindow answers the XTWINOPS size queries. Pixel reports are
// skipped while the pixel size is unknown.
func (t *Terminal) reportWindow(op int) {
	rows, cols := t.Dimensions()
	pixels := t.pixelWidth > 0 && t.pixelHeight > 0

	var seq string
	switch {
	case op == 14 && pixels:
		seq = fmt.Sprintf("\x1b[4;%d;%dt", t.pixelHeight, t.pixelWidth)
	case op == 16 && pixels:
		seq = fmt.Sprintf("\x1b[6;%d;%dt", t.pixelHeight/rows, t.pixelWidth/cols)
	case op == 18:
		seq = fmt.Sprintf("\x1b[8;%d;%dt", rows, cols)
	default:
		return
	}
	if err := t.respond(seq); err != nil {
		t.log.WithError(err).Debug("window report failed")
	}
}

// Dimensions returns the visible geometry.
func (t *Terminal) Dimensions() (rows, cols int) {
	s := t.Screen()
	return s.Height(), s.Width()
}

// KeyDown encodes a key press and sends it to the program.
func (t *Terminal) KeyDown(key KeyCode, mods Modifiers) error {
	seq, err := encodeKey(key, mods, t.appCursor)
	if err != nil {
		return err
	}
	return t.respond(seq)
}

// MouseEvent reports a mouse event to the program when it has enabled
// mouse tracking. It is a no-op otherwise.
func (t *Terminal) MouseEvent(ev MouseEvent) error {
	rows, cols := t.Dimensions()
	if ev.X >= cols || ev.Y >= rows {
		return fmt.Errorf("%w: %d,%d outside %dx%d", ErrMouseOutOfRange, ev.X, ev.Y, cols, rows)
	}
	seq, err := encodeMouse(ev, t.mouse, t.sgrMouse)
	if err != nil || seq == "" {
		return err
	}
	return t.respond(seq)
}

// SendPaste sends pasted text, bracketed when the program asked for it.
func (t *Terminal) SendPaste(text string) error {
	if t.bracketedPaste {
		// An embedded end marker would let pasted text escape the bracket.
		text = strings.ReplaceAll(text, "\x1b[201~", "")
		return t.respond("\x1b[200~" + text + "\x1b[201~")
	}
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")
	return t.respond(text)
}

// FocusChanged reports focus to programs that enabled focus events.
func (t *Terminal) FocusChanged(focused bool) error {
	if !t.focusReporting {
		return nil
	}
	if focused {
		return t.respond("\x1b[I")
	}
	return t.respond("\x1b[O")
}

// IsMouseGrabbed reports whether the program enabled mouse tracking.
func (t *Terminal) IsMouseGrabbed() bool {
	return t.mouse != mouseOff
}

// BracketedPaste reports whether the program enabled bracketed paste.
func (t *Terminal) BracketedPaste() bool {
	return t.bracketedPaste
}

// AlternateScreen reports whether the alternate screen is active.
func (t *Terminal) AlternateScreen() bool {
	return t.altActive
}

// Title returns the title last set with OSC 0 or 2.
func (t *Terminal) Title() string {
	return t.title
}

// Palette returns a copy of the current palette.
func (t *Terminal) Palette() Palette {
	return t.palette
}

// SetClipboard registers the target for OSC 52. Nil disables it.
func (t *Terminal) SetClipboard(c Clipboard) {
	t.clipboard = c
}

// CurrentDir returns the directory last reported with OSC 7, or nil.
func (t *Terminal) CurrentDir() *url.URL {
	if t.cwd == nil {
		return nil
	}
	u := *t.cwd
	return &u
}

// EraseScrollback discards history, keeping the visible screen.
func (t *Terminal) EraseScrollback() {
	t.history.Clear()
	t.zones.trim(t.visibleTop())
}

// SemanticZones returns the shell-integration zones known so far.
func (t *Terminal) SemanticZones() []SemanticZone {
	return t.zones.zones(t.cursorPos())
}

// Snapshot copies the lines of the active screen, preceded by the
// scrollback when the primary screen is active.
func (t *Terminal) Snapshot() *Snapshot {
	lines, first := t.history.snapshot()
	if t.altActive {
		return &Snapshot{
			Lines:       t.alternate.Lines(),
			Rows:        t.alternate.Height(),
			Cols:        t.alternate.Width(),
			firstStable: first + int64(len(lines)),
		}
	}
	return &Snapshot{
		Lines:       append(lines, t.primary.Lines()...),
		Rows:        t.primary.Height(),
		Cols:        t.primary.Width(),
		firstStable: first,
	}
}

// visibleTop returns the stable row of the first visible line.
func (t *Terminal) visibleTop() StableRowIndex {
	return StableRowIndex(t.history.Dropped() + int64(t.history.Len()))
}

func (t *Terminal) cursorPos() zonePos {
	x, y := t.Screen().CursorPos()
	return zonePos{x: x, y: t.visibleTop() + StableRowIndex(y)}
}

// respond writes bytes destined for the program.
func (t *Terminal) respond(seq string) error {
	if _, err := io.WriteString(t.w, seq); err != nil {
		return fmt.Errorf("write to program: %w", err)
	}
	return nil
}

func (t *Terminal) setMode(mode int, set bool) {
	switch mode {
	case 1: // DECCKM
		t.appCursor = set
	case 9:
		t.setMouse(mouseX10, set)
	case 1000:
		t.setMouse(mouseNormal, set)
	case 1002:
		t.setMouse(mouseButton, set)
	case 1003:
		t.setMouse(mouseAny, set)
	case 1004:
		t.focusReporting = set
	case 1006:
		t.sgrMouse = set
	case 2004:
		t.bracketedPaste = set
	case 47, 1047:
		t.switchScreen(set, false)
	case 1049:
		t.switchScreen(set, true)
	case modeEraseSaved:
		t.EraseScrollback()
	default:
		t.log.WithFields(logrus.Fields{"mode": mode, "set": set}).Debug("unhandled private mode")
	}
}

func (t *Terminal) setMouse(level mouseTracking, set bool) {
	switch {
	case set:
		t.mouse = level
	case t.mouse == level:
		t.mouse = mouseOff
	}
}

func (t *Terminal) switchScreen(alt, saveCursor bool) {
	if alt == t.altActive {
		return
	}
	if alt {
		if saveCursor {
			t.primary.SaveCursor()
		}
		x, y := t.primary.CursorPos()
		t.alternate.Reset()
		t.alternate.MoveCursor(x, y)
		t.altActive = true
		t.parser.SetScreen(t.alternate)
		return
	}

	t.altActive = false
	t.parser.SetScreen(t.primary)
	if saveCursor {
		t.primary.RestoreCursor()
	}
	t.primary.MakeAllLinesDirty()
}

func (t *Terminal) handleOSC(cmd int, data string) {
	switch cmd {
	case 4:
		t.setPaletteEntries(data)
	case 7:
		t.setCurrentDir(data)
	case 10, 11, 12:
		t.setDynamicColor(cmd, data)
	case 52:
		t.setClipboardContents(data)
	case 104:
		t.resetPaletteEntries(data)
	case 110:
		t.palette.Foreground = DefaultPalette().Foreground
	case 111:
		t.palette.Background = DefaultPalette().Background
	case 112:
		t.palette.Cursor = DefaultPalette().Cursor
	case 133:
		t.markZone(data)
	default:
		t.log.WithField("osc", cmd).Debug("unhandled OSC")
	}
}

func (t *Terminal) setCurrentDir(data string) {
	u, err := url.Parse(data)
	if err != nil || u.Scheme != "file" {
		t.log.WithField("cwd", data).Debug("ignoring malformed OSC 7")
		return
	}
	t.cwd = u
}

func (t *Terminal) setPaletteEntries(data string) {
	parts := strings.Split(data, ";")
	for i := 0; i+1 < len(parts); i += 2 {
		idx, err := strconv.Atoi(parts[i])
		if err != nil || idx < 0 || idx >= len(t.palette.Colors) {
			continue
		}
		if parts[i+1] == "?" {
			t.reportColor("4;"+parts[i], t.palette.Colors[idx])
			continue
		}
		c, err := parseColorSpec(parts[i+1])
		if err != nil {
			t.log.WithError(err).Debug("ignoring OSC 4 entry")
			continue
		}
		t.palette.Colors[idx] = c
	}
}

func (t *Terminal) resetPaletteEntries(data string) {
	def := DefaultPalette()
	if data == "" {
		t.palette.Colors = def.Colors
		return
	}
	for _, s := range strings.Split(data, ";") {
		idx, err := strconv.Atoi(s)
		if err != nil || idx < 0 || idx >= len(t.palette.Colors) {
			continue
		}
		t.palette.Colors[idx] = def.Colors[idx]
	}
}

// setDynamicColor handles OSC 10-12. Each additional parameter applies
// to the next dynamic color, as in xterm.
func (t *Terminal) setDynamicColor(cmd int, data string) {
	targets := []*colorful.Color{&t.palette.Foreground, &t.palette.Background, &t.palette.Cursor}
	for i, spec := range strings.Split(data, ";") {
		n := cmd - 10 + i
		if n >= len(targets) {
			return
		}
		if spec == "?" {
			t.reportColor(strconv.Itoa(10+n), *targets[n])
			continue
		}
		c, err := parseColorSpec(spec)
		if err != nil {
			t.log.WithError(err).Debug("ignoring dynamic color")
			continue
		}
		*targets[n] = c
	}
}

func (t *Terminal) reportColor(prefix string, c colorful.Color) {
	r, g, b := c.RGB255()
	seq := fmt.Sprintf("\x1b]%s;rgb:%02x%02x/%02x%02x/%02x%02x\x1b\\", prefix, r, r, g, g, b, b)
	if err := t.respond(seq); err != nil {
		t.log.WithError(err).Debug("color report failed")
	}
}

func (t *Terminal) setClipboardContents(data string) {
	if t.clipboard == nil {
		return
	}
	targets, payload, ok := strings.Cut(data, ";")
	if !ok || payload == "?" {
		return
	}
	text, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.log.WithError(err).Debug("ignoring malformed OSC 52")
		return
	}

	sel := SelectionClipboard
	if strings.ContainsAny(targets, "ps") && !strings.Contains(targets, "c") {
		sel = SelectionPrimary
	}
	if err := t.clipboard.SetContents(sel, string(text)); err != nil {
		t.log.WithError(err).Warn("clipboard update failed")
	}
}

func (t *Terminal) markZone(data string) {
	kind, _, _ := strings.Cut(data, ";")
	_, cols := t.Dimensions()
	pos := t.cursorPos()
	switch kind {
	case "A":
		t.zones.mark(pos, cols, SemanticPrompt, false)
	case "B":
		t.zones.mark(pos, cols, SemanticInput, false)
	case "C":
		t.zones.mark(pos, cols, SemanticOutput, false)
	case "D":
		t.zones.mark(pos, cols, SemanticOutput, true)
	}
}
