package device

import "github.com/dshills/panekit/internal/terminal"

// EventKind identifies the type of an InputEvent.
type EventKind int

const (
	EventKey EventKind = iota
	EventMouse
	EventResize
	EventPaste
	EventFocus
)

func (k EventKind) String() string {
	switch k {
	case EventKey:
		return "key"
	case EventMouse:
		return "mouse"
	case EventResize:
		return "resize"
	case EventPaste:
		return "paste"
	case EventFocus:
		return "focus"
	default:
		return "unknown"
	}
}

// InputEvent is a parsed input event. Only the fields for its Kind are
// set.
type InputEvent struct {
	Kind EventKind

	// Key events
	Key  terminal.KeyCode
	Mods terminal.Modifiers

	// Mouse events, in zero-based cells
	Mouse terminal.MouseEvent

	// Resize events
	Size ScreenSize

	// Paste events
	Text string

	// Focus events
	Focused bool
}

func keyEvent(k terminal.KeyCode, mods terminal.Modifiers) InputEvent {
	return InputEvent{Kind: EventKey, Key: k, Mods: mods}
}
