// Package clipboard provides destinations for text that programs running
// in a pane copy with OSC 52.
//
// Three backends are available. System writes to the desktop clipboard.
// OSC52 forwards the copy to the terminal the pane is displayed in, which
// also works over ssh. Memory keeps the text in process, for tests and
// headless use.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/dshills/panekit/internal/terminal"
)

// ErrUnavailable is returned when the system clipboard cannot be used.
var ErrUnavailable = errors.New("system clipboard unavailable")

// System writes to the desktop clipboard. The primary selection is
// treated like the clipboard.
type System struct{}

// SetContents implements terminal.Clipboard.
func (System) SetContents(_ terminal.ClipboardSelection, text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write system clipboard: %w", err)
	}
	return nil
}

// Multiplexer wraps OSC 52 sequences for an enclosing multiplexer.
type Multiplexer int

const (
	// MultiplexerNone writes plain sequences.
	MultiplexerNone Multiplexer = iota
	// MultiplexerTmux wraps sequences in tmux passthrough.
	MultiplexerTmux
	// MultiplexerScreen wraps sequences in GNU screen passthrough.
	MultiplexerScreen
)

// OSC52 forwards copies to the outer terminal as OSC 52 sequences.
type OSC52 struct {
	mu    sync.Mutex
	w     io.Writer
	mux   Multiplexer
	limit int
}

// NewOSC52 returns a backend writing to w, normally the tty the pane is
// rendered on. A positive limit drops copies longer than limit bytes.
func NewOSC52(w io.Writer, mux Multiplexer, limit int) *OSC52 {
	return &OSC52{w: w, mux: mux, limit: limit}
}

// SetContents implements terminal.Clipboard.
func (o *OSC52) SetContents(sel terminal.ClipboardSelection, text string) error {
	seq := osc52.New(text)
	if sel == terminal.SelectionPrimary {
		seq = seq.Primary()
	}
	if o.limit > 0 {
		seq = seq.Limit(o.limit)
	}
	switch o.mux {
	case MultiplexerTmux:
		seq = seq.Tmux()
	case MultiplexerScreen:
		seq = seq.Screen()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := seq.WriteTo(o.w); err != nil {
		return fmt.Errorf("write osc52: %w", err)
	}
	return nil
}

// Memory keeps clipboard contents in process.
type Memory struct {
	mu       sync.Mutex
	contents map[terminal.ClipboardSelection]string
}

// NewMemory returns an empty in-process clipboard.
func NewMemory() *Memory {
	return &Memory{contents: make(map[terminal.ClipboardSelection]string)}
}

// SetContents implements terminal.Clipboard.
func (m *Memory) SetContents(sel terminal.ClipboardSelection, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents[sel] = text
	return nil
}

// Contents returns the text last stored for sel.
func (m *Memory) Contents(sel terminal.ClipboardSelection) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.contents[sel]
	return text, ok
}

// New returns the backend named by kind: "system", "osc52" or "memory".
// OSC 52 output goes to w. An empty kind selects "osc52" when w is not
// nil and "memory" otherwise.
func New(kind string, w io.Writer) (terminal.Clipboard, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = "memory"
		if w != nil {
			kind = "osc52"
		}
	}
	switch kind {
	case "system":
		return System{}, nil
	case "osc52":
		if w == nil {
			return nil, fmt.Errorf("osc52 clipboard: no output")
		}
		return NewOSC52(w, MultiplexerNone, 0), nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown clipboard %q", kind)
	}
}

var (
	_ terminal.Clipboard = System{}
	_ terminal.Clipboard = (*OSC52)(nil)
	_ terminal.Clipboard = (*Memory)(nil)
)
