package device

import (
	"bytes"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"github.com/dshills/panekit/internal/terminal"
)

const pasteEnd = "\x1b[201~"

// decoder turns bytes read from a tty into input events. Sequences are
// tokenized by ansi.DecodeSequence; incomplete ones stay buffered until
// more bytes arrive.
type decoder struct {
	buf []byte
	p   *ansi.Parser
}

// feed appends p and returns every event it completes. A lone ESC at the
// end of a read is reported as the Escape key, and ESC followed by one
// printable byte as that key with Alt, since terminals write an escape
// sequence in a single write.
func (d *decoder) feed(p []byte) []InputEvent {
	if d.p == nil {
		d.p = ansi.NewParser()
	}
	d.buf = append(d.buf, p...)

	var out []InputEvent
	for len(d.buf) > 0 {
		ev, n := d.decodeOne(d.buf)
		if n == 0 {
			break
		}
		d.buf = d.buf[n:]
		if ev != nil {
			out = append(out, *ev)
		}
	}

	switch {
	case len(d.buf) == 1 && d.buf[0] == ansi.ESC:
		out = append(out, keyEvent(terminal.KeyEscape, terminal.ModNone))
		d.buf = d.buf[:0]
	case len(d.buf) == 2 && d.buf[0] == ansi.ESC && altPending(d.buf[1]):
		out = append(out, keyEvent(terminal.Char(rune(d.buf[1])), terminal.ModAlt))
		d.buf = d.buf[:0]
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return out
}

// altPending reports whether ESC c left at the end of a read is Alt+c
// rather than the start of a longer sequence. CSI and SS3 introducers
// keep waiting.
func altPending(c byte) bool {
	return c >= 0x20 && c < 0x7f && c != '[' && c != 'O'
}

// decodeOne decodes the event at the start of b. It returns the number of
// bytes consumed, zero when b holds an incomplete sequence. A nil event
// with n > 0 means the bytes were a sequence that carries no event.
func (d *decoder) decodeOne(b []byte) (*InputEvent, int) {
	if b[0] != ansi.ESC {
		return decodeKey(b)
	}

	seq, _, n, state := ansi.DecodeSequence(b, ansi.NormalState, d.p)
	if state != ansi.NormalState {
		return nil, 0
	}

	if len(seq) == 1 {
		// ESC followed by a byte that does not continue a sequence.
		if len(b) == 1 || b[1] == ansi.ESC {
			return event(keyEvent(terminal.KeyEscape, terminal.ModNone)), 1
		}
		ev, n := decodeKey(b[1:])
		if n == 0 {
			return nil, 0
		}
		if ev != nil {
			ev.Mods |= terminal.ModAlt
		}
		return ev, n + 1
	}

	switch b[1] {
	case '[':
		return d.decodeCSI(b, n)
	case 'O':
		if len(b) < 3 {
			return nil, 0
		}
		if k, ok := ss3Key(b[2]); ok {
			return event(keyEvent(k, terminal.ModNone)), 3
		}
		return nil, 3
	case 'P', ']', 'X', '^', '_':
		return nil, n
	}

	cmd := ansi.Cmd(d.p.Command())
	if len(seq) == 2 && cmd.Intermediate() == 0 {
		return event(keyEvent(terminal.Char(rune(cmd.Final())), terminal.ModAlt)), n
	}
	return nil, n
}

// decodeKey decodes a control byte or a UTF-8 rune.
func decodeKey(b []byte) (*InputEvent, int) {
	c := b[0]
	switch {
	case c == '\r':
		return event(keyEvent(terminal.KeyEnter, terminal.ModNone)), 1
	case c == '\t':
		return event(keyEvent(terminal.KeyTab, terminal.ModNone)), 1
	case c == ansi.DEL:
		return event(keyEvent(terminal.KeyBackspace, terminal.ModNone)), 1
	case c == ansi.BS:
		return event(keyEvent(terminal.KeyBackspace, terminal.ModCtrl)), 1
	case c == ansi.NUL:
		return event(keyEvent(terminal.Char(' '), terminal.ModCtrl)), 1
	case c >= 0x01 && c <= 0x1a:
		return event(keyEvent(terminal.Char(rune('a'+c-1)), terminal.ModCtrl)), 1
	case c >= 0x1c && c <= 0x1f:
		return event(keyEvent(terminal.Char(rune('@'+c)), terminal.ModCtrl)), 1
	}

	if !utf8.FullRune(b) {
		return nil, 0
	}
	r, n := utf8.DecodeRune(b)
	if r == utf8.RuneError && n == 1 {
		return nil, 1
	}
	return event(keyEvent(terminal.Char(r), terminal.ModNone)), n
}

func event(ev InputEvent) *InputEvent {
	return &ev
}

// decodeCSI maps a complete CSI sequence of n bytes, already parsed into
// d.p, to an event.
func (d *decoder) decodeCSI(b []byte, n int) (*InputEvent, int) {
	cmd := ansi.Cmd(d.p.Command())
	final := cmd.Final()
	if final == 0 {
		// Malformed; drop the introducer and decode the rest as keys.
		return event(keyEvent(terminal.KeyEscape, terminal.ModNone)), 1
	}
	nparams := len(d.p.Params())
	param := func(i, def int) int {
		v, _ := d.p.Param(i, def)
		return v
	}

	switch {
	case cmd.Prefix() == '<' && (final == 'M' || final == 'm'):
		if nparams != 3 {
			return nil, n
		}
		return sgrMouse(param(0, 0), param(1, 1), param(2, 1), final == 'm'), n
	case cmd.Prefix() != 0 || cmd.Intermediate() != 0:
		return nil, n
	case final == '~':
		switch code := param(0, 0); code {
		case 200:
			end := bytes.Index(b[n:], []byte(pasteEnd))
			if end < 0 {
				return nil, 0
			}
			text := string(b[n : n+end])
			return event(InputEvent{Kind: EventPaste, Text: text}), n + end + len(pasteEnd)
		case 201:
			return nil, n
		default:
			k, ok := tildeCodes[code]
			if !ok {
				return nil, n
			}
			return event(keyEvent(k, modsParam(param(1, 1)))), n
		}
	case final == 'M' && nparams == 0:
		return decodeX10Mouse(b, n)
	case final == 'I' && nparams == 0:
		return event(InputEvent{Kind: EventFocus, Focused: true}), n
	case final == 'O' && nparams == 0:
		return event(InputEvent{Kind: EventFocus, Focused: false}), n
	case final == 'Z':
		return event(keyEvent(terminal.KeyTab, terminal.ModShift)), n
	}

	if k, ok := ss3Key(final); ok {
		return event(keyEvent(k, modsParam(param(1, 1)))), n
	}
	return nil, n
}

// modsParam decodes the xterm modifier parameter, 1 + bitmask.
func modsParam(p int) terminal.Modifiers {
	if p < 2 {
		return terminal.ModNone
	}
	return terminal.Modifiers(p - 1)
}

func ss3Key(final byte) (terminal.KeyCode, bool) {
	switch final {
	case 'A':
		return terminal.KeyUp, true
	case 'B':
		return terminal.KeyDown, true
	case 'C':
		return terminal.KeyRight, true
	case 'D':
		return terminal.KeyLeft, true
	case 'H':
		return terminal.KeyHome, true
	case 'F':
		return terminal.KeyEnd, true
	case 'P':
		return terminal.KeyF1, true
	case 'Q':
		return terminal.KeyF2, true
	case 'R':
		return terminal.KeyF3, true
	case 'S':
		return terminal.KeyF4, true
	}
	return 0, false
}

var tildeCodes = map[int]terminal.KeyCode{
	1:  terminal.KeyHome,
	2:  terminal.KeyInsert,
	3:  terminal.KeyDelete,
	4:  terminal.KeyEnd,
	5:  terminal.KeyPageUp,
	6:  terminal.KeyPageDown,
	7:  terminal.KeyHome,
	8:  terminal.KeyEnd,
	11: terminal.KeyF1,
	12: terminal.KeyF2,
	13: terminal.KeyF3,
	14: terminal.KeyF4,
	15: terminal.KeyF5,
	17: terminal.KeyF6,
	18: terminal.KeyF7,
	19: terminal.KeyF8,
	20: terminal.KeyF9,
	21: terminal.KeyF10,
	23: terminal.KeyF11,
	24: terminal.KeyF12,
}

// mouseFromCode decodes the button byte shared by the X10 and SGR
// encodings.
func mouseFromCode(code int) terminal.MouseEvent {
	var ev terminal.MouseEvent
	if code&4 != 0 {
		ev.Modifiers |= terminal.ModShift
	}
	if code&8 != 0 {
		ev.Modifiers |= terminal.ModAlt
	}
	if code&16 != 0 {
		ev.Modifiers |= terminal.ModCtrl
	}

	if code&64 != 0 {
		ev.Kind = terminal.MousePress
		if code&1 == 0 {
			ev.Button = terminal.MouseWheelUp
		} else {
			ev.Button = terminal.MouseWheelDown
		}
		return ev
	}

	switch code & 3 {
	case 0:
		ev.Button = terminal.MouseLeft
	case 1:
		ev.Button = terminal.MouseMiddle
	case 2:
		ev.Button = terminal.MouseRight
	default:
		ev.Button = terminal.MouseNone
	}
	if code&32 != 0 {
		ev.Kind = terminal.MouseMove
	} else {
		ev.Kind = terminal.MousePress
	}
	return ev
}

func sgrMouse(code, x, y int, release bool) *InputEvent {
	ev := mouseFromCode(code)
	if release {
		ev.Kind = terminal.MouseRelease
	}
	ev.X = x - 1
	ev.Y = y - 1
	return event(InputEvent{Kind: EventMouse, Mouse: ev})
}

// decodeX10Mouse decodes the three raw bytes following ESC [ M.
func decodeX10Mouse(b []byte, n int) (*InputEvent, int) {
	if len(b) < n+3 {
		return nil, 0
	}
	code := int(b[n]) - 32
	ev := mouseFromCode(code)
	if code&3 == 3 && code&(32|64) == 0 {
		ev.Kind = terminal.MouseRelease
	}
	ev.X = int(b[n+1]) - 33
	ev.Y = int(b[n+2]) - 33
	return event(InputEvent{Kind: EventMouse, Mouse: ev}), n + 3
}
