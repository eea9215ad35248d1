package terminal

// Snapshot is a point-in-time copy of every line the emulator retains:
// scrollback first, then the visible screen.
type Snapshot struct {
	// Lines holds history lines followed by the visible rows.
	Lines []*Line

	// Rows and Cols are the visible screen geometry.
	Rows, Cols int

	firstStable int64
}

// StableRow maps a physical index into Lines to its stable row.
func (s *Snapshot) StableRow(phys int) StableRowIndex {
	return StableRowIndex(s.firstStable + int64(phys))
}

// PhysRow maps a stable row back into an index into Lines. It reports
// false when the row is no longer (or not yet) part of the snapshot.
func (s *Snapshot) PhysRow(row StableRowIndex) (int, bool) {
	phys := int64(row) - s.firstStable
	if phys < 0 || phys >= int64(len(s.Lines)) {
		return 0, false
	}
	return int(phys), true
}

// NewSnapshot builds a snapshot from plain lines whose first line has
// stable row first. It is intended for callers that have text without an
// emulator, such as tests and replayed captures.
func NewSnapshot(lines []*Line, first StableRowIndex) *Snapshot {
	cols := 0
	for _, l := range lines {
		cols = max(cols, len(l.Cells))
	}
	return &Snapshot{
		Lines:       lines,
		Rows:        len(lines),
		Cols:        cols,
		firstStable: int64(first),
	}
}
