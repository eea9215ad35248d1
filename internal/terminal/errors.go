package terminal

import "errors"

// Sentinel errors for the terminal package.
var (
	// ErrUnsupportedKey is returned when a key code has no encoding.
	ErrUnsupportedKey = errors.New("unsupported key")

	// ErrInvalidMouseEvent is returned for malformed mouse events.
	ErrInvalidMouseEvent = errors.New("invalid mouse event")

	// ErrMouseOutOfRange is returned for positions outside the grid or
	// beyond what the legacy report encoding can carry.
	ErrMouseOutOfRange = errors.New("mouse position out of range")

	// ErrInvalidSize is returned when a resize requests an empty grid.
	ErrInvalidSize = errors.New("invalid terminal size")
)
