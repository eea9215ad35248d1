package device

import (
	"errors"
	"fmt"
)

// Errors returned by devices.
var (
	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("device closed")

	// ErrNotTerminal is returned when a file is not a terminal.
	ErrNotTerminal = errors.New("not a terminal")

	// ErrNotStarted is returned when a Screen is used before raw mode.
	ErrNotStarted = errors.New("screen not started")
)

// Mode is the line discipline of a terminal.
type Mode int

const (
	// ModeCooked buffers input by line, echoes it and translates
	// newlines.
	ModeCooked Mode = iota
	// ModeRaw delivers every byte as typed, without echo or newline
	// translation.
	ModeRaw
)

func (m Mode) String() string {
	switch m {
	case ModeCooked:
		return "cooked"
	case ModeRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Blocking selects PollInput behavior when no event is queued.
type Blocking int

const (
	// DoNotWait returns immediately with no event.
	DoNotWait Blocking = iota
	// Wait blocks until an event arrives or the device is closed.
	Wait
)

// ScreenSize is the size of a terminal screen. Pixel dimensions are zero
// when the terminal does not report them.
type ScreenSize struct {
	Rows        int
	Cols        int
	PixelWidth  int
	PixelHeight int
}

func (s ScreenSize) String() string {
	return fmt.Sprintf("%dx%d", s.Cols, s.Rows)
}

// Device is a terminal that can be drawn on and read from.
type Device interface {
	// SetRawMode disables line buffering, echo and newline translation.
	SetRawMode() error
	// SetCookedMode enables line buffering, echo and newline translation.
	SetCookedMode() error
	// Mode returns the current mode.
	Mode() Mode

	ScreenSize() (ScreenSize, error)
	SetScreenSize(size ScreenSize) error

	// Render applies changes in order. Output may be buffered until
	// Flush.
	Render(changes []Change) error
	Flush() error

	// PollInput returns the next input event. With DoNotWait it returns
	// nil, nil when nothing is queued. With Wait it blocks until an event
	// arrives, or returns ErrClosed once the device is closed.
	PollInput(blocking Blocking) (*InputEvent, error)

	// Close restores the mode in effect when the device was created and
	// releases it.
	Close() error
}
