package terminal

import (
	"strings"
	"sync"
)

// DefaultScrollback is the number of history lines kept when a Config
// does not set one.
const DefaultScrollback = 10000

// StableRowIndex identifies a logical row independently of how much
// scrollback has been added or trimmed since it was produced.
type StableRowIndex int64

// History stores scrollback history lines.
//
// Every line ever pushed gets the next stable row. Lines trimmed from the
// front (or erased) keep their numbers reserved, so stable rows of the
// lines still present never change.
type History struct {
	mu       sync.RWMutex
	lines    []*Line
	maxLines int
	dropped  int64
}

// NewHistory creates a new history buffer.
func NewHistory(maxLines int) *History {
	if maxLines <= 0 {
		maxLines = DefaultScrollback
	}
	return &History{
		lines:    make([]*Line, 0, min(maxLines, 1024)),
		maxLines: maxLines,
	}
}

// Add adds a copy of line to history.
func (h *History) Add(line *Line) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lines = append(h.lines, line.Clone())

	// Trim if exceeds max
	if excess := len(h.lines) - h.maxLines; excess > 0 {
		clear(h.lines[:excess])
		h.lines = h.lines[excess:]
		h.dropped += int64(excess)
	}
}

// Line returns a line from history (0 = oldest retained).
func (h *History) Line(index int) *Line {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if index < 0 || index >= len(h.lines) {
		return nil
	}
	return h.lines[index]
}

// Len returns the number of lines in history.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.lines)
}

// Dropped returns how many lines have left history since creation.
func (h *History) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Clear erases all retained lines.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropped += int64(len(h.lines))
	h.lines = nil
}

// snapshot returns the retained lines and the stable row of the first one.
// Lines in history are never mutated, so sharing them is safe.
func (h *History) snapshot() ([]*Line, int64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	lines := make([]*Line, len(h.lines))
	copy(lines, h.lines)
	return lines, h.dropped
}

// GetText returns all history as text, joining wrapped lines.
func (h *History) GetText() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var sb strings.Builder
	for i, line := range h.lines {
		sb.WriteString(line.Text())
		if i < len(h.lines)-1 && !line.Wrapped {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
