package terminal

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// KeyCode identifies a key. Non-negative values are the Unicode code
// point typed; negative values are the named keys below.
type KeyCode int32

// Named keys.
const (
	KeyEnter KeyCode = -(iota + 1)
	KeyTab
	KeyBackspace
	KeyEscape
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyInsert
	KeyDelete
	KeyPageUp
	KeyPageDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// Char returns the KeyCode for a typed character.
func Char(r rune) KeyCode {
	return KeyCode(r)
}

// Modifiers is a set of modifier keys held during an input event.
type Modifiers uint8

const (
	ModNone  Modifiers = 0
	ModShift Modifiers = 1 << 0
	ModAlt   Modifiers = 1 << 1
	ModCtrl  Modifiers = 1 << 2
	ModSuper Modifiers = 1 << 3
)

// Has returns true if all of m2 are held.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// xtermParam returns the xterm modifier parameter (1 + bitmask).
func (m Modifiers) xtermParam() int {
	p := 1
	if m.Has(ModShift) {
		p += 1
	}
	if m.Has(ModAlt) {
		p += 2
	}
	if m.Has(ModCtrl) {
		p += 4
	}
	return p
}

// encodeKey returns the bytes an xterm-compatible terminal sends for key.
func encodeKey(key KeyCode, mods Modifiers, appCursor bool) (string, error) {
	if key >= 0 {
		return encodeChar(rune(key), mods)
	}

	var seq string
	switch key {
	case KeyEnter:
		seq = "\r"
	case KeyTab:
		if mods.Has(ModShift) {
			return "\x1b[Z", nil
		}
		seq = "\t"
	case KeyBackspace:
		seq = "\x7f"
		if mods.Has(ModCtrl) {
			seq = "\x08"
		}
	case KeyEscape:
		seq = "\x1b"
	case KeyUp, KeyDown, KeyRight, KeyLeft, KeyHome, KeyEnd:
		return encodeCursorKey(cursorFinal[key], mods, appCursor), nil
	case KeyF1, KeyF2, KeyF3, KeyF4:
		final := byte('P' + (KeyF1 - key))
		return encodeCursorKey(final, mods, true), nil
	default:
		num, ok := tildeKeys[key]
		if !ok {
			return "", fmt.Errorf("%w: %d", ErrUnsupportedKey, key)
		}
		if p := mods.xtermParam(); p > 1 {
			return "\x1b[" + strconv.Itoa(num) + ";" + strconv.Itoa(p) + "~", nil
		}
		return "\x1b[" + strconv.Itoa(num) + "~", nil
	}

	if mods.Has(ModAlt) {
		return "\x1b" + seq, nil
	}
	return seq, nil
}

var cursorFinal = map[KeyCode]byte{
	KeyUp:    'A',
	KeyDown:  'B',
	KeyRight: 'C',
	KeyLeft:  'D',
	KeyHome:  'H',
	KeyEnd:   'F',
}

var tildeKeys = map[KeyCode]int{
	KeyInsert:   2,
	KeyDelete:   3,
	KeyPageUp:   5,
	KeyPageDown: 6,
	KeyF5:       15,
	KeyF6:       17,
	KeyF7:       18,
	KeyF8:       19,
	KeyF9:       20,
	KeyF10:      21,
	KeyF11:      23,
	KeyF12:      24,
}

func encodeCursorKey(final byte, mods Modifiers, ss3 bool) string {
	if p := mods.xtermParam(); p > 1 {
		return "\x1b[1;" + strconv.Itoa(p) + string(final)
	}
	if ss3 {
		return "\x1bO" + string(final)
	}
	return "\x1b[" + string(final)
}

func encodeChar(r rune, mods Modifiers) (string, error) {
	if !utf8.ValidRune(r) {
		return "", fmt.Errorf("%w: invalid rune %U", ErrUnsupportedKey, r)
	}

	if mods.Has(ModShift) {
		r = unicode.ToUpper(r)
	}

	var seq string
	if mods.Has(ModCtrl) {
		c, ok := ctrlChar(r)
		if !ok {
			return "", fmt.Errorf("%w: ctrl+%q", ErrUnsupportedKey, r)
		}
		seq = string([]byte{c})
	} else {
		seq = string(r)
	}

	if mods.Has(ModAlt) {
		return "\x1b" + seq, nil
	}
	return seq, nil
}

// ctrlChar maps r to its C0 control byte.
func ctrlChar(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= '@' && r <= '_':
		return byte(r - '@'), true
	case r == ' ':
		return 0, true
	case r == '?':
		return 0x7f, true
	}
	return 0, false
}

// MouseButton identifies the button in a mouse event.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// MouseEventKind is the kind of mouse event.
type MouseEventKind int

const (
	MousePress MouseEventKind = iota
	MouseRelease
	MouseMove
)

// MouseEvent is a mouse event in cell coordinates (0-indexed) of the
// visible screen.
type MouseEvent struct {
	Kind      MouseEventKind
	Button    MouseButton
	X, Y      int
	Modifiers Modifiers
}

// mouseTracking is the mouse reporting level requested by the application.
type mouseTracking int

const (
	mouseOff    mouseTracking = iota
	mouseX10                  // 9: presses only
	mouseNormal               // 1000: presses and releases
	mouseButton               // 1002: plus motion with a button held
	mouseAny                  // 1003: plus all motion
)

// encodeMouse returns the report for ev, or "" when the current tracking
// level does not report it.
func encodeMouse(ev MouseEvent, tracking mouseTracking, sgr bool) (string, error) {
	if ev.X < 0 || ev.Y < 0 {
		return "", fmt.Errorf("%w: negative position %d,%d", ErrInvalidMouseEvent, ev.X, ev.Y)
	}
	if tracking == mouseOff {
		return "", nil
	}

	var code int
	switch ev.Button {
	case MouseLeft:
		code = 0
	case MouseMiddle:
		code = 1
	case MouseRight:
		code = 2
	case MouseNone:
		code = 3
	case MouseWheelUp:
		code = 64
	case MouseWheelDown:
		code = 65
	default:
		return "", fmt.Errorf("%w: button %d", ErrInvalidMouseEvent, ev.Button)
	}
	wheel := code >= 64

	switch ev.Kind {
	case MousePress:
		if ev.Button == MouseNone {
			return "", fmt.Errorf("%w: press without button", ErrInvalidMouseEvent)
		}
	case MouseRelease:
		if tracking == mouseX10 || wheel {
			return "", nil
		}
		if !sgr {
			code = 3
		}
	case MouseMove:
		switch {
		case tracking == mouseAny:
		case tracking == mouseButton && ev.Button != MouseNone:
		default:
			return "", nil
		}
		code += 32
	default:
		return "", fmt.Errorf("%w: kind %d", ErrInvalidMouseEvent, ev.Kind)
	}

	if tracking != mouseX10 {
		if ev.Modifiers.Has(ModShift) {
			code += 4
		}
		if ev.Modifiers.Has(ModAlt) {
			code += 8
		}
		if ev.Modifiers.Has(ModCtrl) {
			code += 16
		}
	}

	x, y := ev.X+1, ev.Y+1
	if sgr {
		final := 'M'
		if ev.Kind == MouseRelease {
			final = 'm'
		}
		return fmt.Sprintf("\x1b[<%d;%d;%d%c", code, x, y, final), nil
	}

	if x+32 > 255 || y+32 > 255 {
		return "", fmt.Errorf("%w: %d,%d exceeds legacy encoding", ErrMouseOutOfRange, ev.X, ev.Y)
	}
	return string([]byte{0x1b, '[', 'M', byte(32 + code), byte(32 + x), byte(32 + y)}), nil
}
