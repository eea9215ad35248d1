package terminal

import (
	"slices"
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 {
		t.Errorf("expected width 80, got %d", s.Width())
	}
	if s.Height() != 24 {
		t.Errorf("expected height 24, got %d", s.Height())
	}

	x, y := s.CursorPos()
	if x != 0 || y != 0 {
		t.Errorf("expected cursor at (0,0), got (%d,%d)", x, y)
	}
}

func TestScreenSetCellOutOfBounds(t *testing.T) {
	s := NewScreen(80, 24)

	cell := Cell{Text: "A", Width: 1}
	// These should not panic
	s.SetCell(-1, 0, cell)
	s.SetCell(0, -1, cell)
	s.SetCell(80, 0, cell)
	s.SetCell(0, 24, cell)
}

func TestScreenCursorMovement(t *testing.T) {
	s := NewScreen(80, 24)

	s.MoveCursor(10, 5)
	x, y := s.CursorPos()
	if x != 10 || y != 5 {
		t.Errorf("expected cursor at (10,5), got (%d,%d)", x, y)
	}

	s.MoveCursorRelative(0, -2)
	_, y = s.CursorPos()
	if y != 3 {
		t.Errorf("expected cursor y=3, got %d", y)
	}

	s.MoveCursorRelative(5, 0)
	x, _ = s.CursorPos()
	if x != 15 {
		t.Errorf("expected cursor x=15, got %d", x)
	}

	// Clamped at the edges
	s.MoveCursor(100, 50)
	x, y = s.CursorPos()
	if x != 79 || y != 23 {
		t.Errorf("expected cursor at (79,23), got (%d,%d)", x, y)
	}
}

func TestScreenWriteRune(t *testing.T) {
	s := NewScreen(80, 24)

	s.WriteRune('H')
	s.WriteRune('i')

	if got := s.Cell(0, 0).Text; got != "H" {
		t.Errorf("expected 'H', got %q", got)
	}
	if got := s.Cell(1, 0).Text; got != "i" {
		t.Errorf("expected 'i', got %q", got)
	}

	x, _ := s.CursorPos()
	if x != 2 {
		t.Errorf("expected cursor x=2, got %d", x)
	}
}

func TestScreenAutoWrapSetsWrapped(t *testing.T) {
	s := NewScreen(5, 3)

	for _, r := range "abcdefg" {
		s.WriteRune(r)
	}

	first := s.Line(0)
	if !first.Wrapped {
		t.Error("expected first line to be marked wrapped")
	}
	if first.Text() != "abcde" {
		t.Errorf("expected 'abcde', got %q", first.Text())
	}
	second := s.Line(1)
	if second.Wrapped {
		t.Error("expected second line not to be wrapped")
	}
	if got := strings.TrimRight(second.Text(), " "); got != "fg" {
		t.Errorf("expected 'fg', got %q", got)
	}
}

func TestScreenWideRune(t *testing.T) {
	s := NewScreen(4, 2)

	s.WriteRune('世')
	s.WriteRune('界')

	if c := s.Cell(0, 0); c.Text != "世" || c.Width != 2 {
		t.Errorf("expected wide cell '世', got %q width %d", c.Text, c.Width)
	}
	if c := s.Cell(1, 0); c.Width != 0 {
		t.Errorf("expected spacer cell, got width %d", c.Width)
	}
	if got := s.Line(0).Text(); got != "世界" {
		t.Errorf("expected '世界', got %q", got)
	}

	var cols []int
	for x := range s.Line(0).VisibleCells() {
		cols = append(cols, x)
	}
	if !slices.Equal(cols, []int{0, 2}) {
		t.Errorf("expected visible columns [0 2], got %v", cols)
	}
}

func TestScreenWideRuneWrapsAtLastColumn(t *testing.T) {
	s := NewScreen(3, 2)

	s.WriteRune('a')
	s.WriteRune('b')
	s.WriteRune('世')

	if !s.Line(0).Wrapped {
		t.Error("expected line 0 to wrap before the wide rune")
	}
	if c := s.Cell(0, 1); c.Text != "世" {
		t.Errorf("expected wide rune on line 1, got %q", c.Text)
	}
}

func TestScreenCombiningMarkJoinsCell(t *testing.T) {
	s := NewScreen(10, 2)

	s.WriteRune('e')
	s.WriteRune('\u0301')
	s.WriteRune('x')

	if got := s.Cell(0, 0).Text; got != "e\u0301" {
		t.Errorf("expected combined grapheme, got %q", got)
	}
	if got := s.Cell(1, 0).Text; got != "x" {
		t.Errorf("expected 'x' in second cell, got %q", got)
	}
}

func TestScreenScrollUpPushesHistory(t *testing.T) {
	h := NewHistory(100)
	s := newScreenWithHistory(10, 3, h)

	for i, r := range "1234" {
		if i > 0 {
			s.CarriageReturn()
			s.LineFeed()
		}
		s.WriteRune(r)
	}

	if h.Len() != 1 {
		t.Fatalf("expected 1 history line, got %d", h.Len())
	}
	if got := strings.TrimSpace(h.Line(0).Text()); got != "1" {
		t.Errorf("expected '1' in history, got %q", got)
	}
	if got := strings.TrimSpace(s.Line(0).Text()); got != "2" {
		t.Errorf("expected '2' on top row, got %q", got)
	}
}

func TestScreenDeleteLinesSkipsHistory(t *testing.T) {
	h := NewHistory(100)
	s := newScreenWithHistory(10, 3, h)
	s.WriteRune('A')

	s.DeleteLines(1)

	if h.Len() != 0 {
		t.Errorf("expected deleted lines to bypass history, got %d lines", h.Len())
	}
	if got := s.Cell(0, 0).Text; got != " " {
		t.Errorf("expected blank top row, got %q", got)
	}
}

func TestScreenScrollRegionDoesNotPushHistory(t *testing.T) {
	h := NewHistory(100)
	s := newScreenWithHistory(10, 5, h)

	s.SetScrollRegion(1, 3)
	s.ScrollUp(1)

	if h.Len() != 0 {
		t.Errorf("expected no history from a partial scroll region, got %d", h.Len())
	}
}

func TestScreenScrollDown(t *testing.T) {
	s := NewScreen(80, 24)

	s.MoveCursor(0, 0)
	s.WriteRune('A')
	s.MoveCursor(0, 1)
	s.WriteRune('B')

	s.ScrollDown(1)

	if got := s.Cell(0, 0).Text; got != " " {
		t.Errorf("expected ' ' on line 0 after scroll down, got %q", got)
	}
	if got := s.Cell(0, 1).Text; got != "A" {
		t.Errorf("expected 'A' on line 1 after scroll down, got %q", got)
	}
}

func TestScreenClearScreenBelow(t *testing.T) {
	s := NewScreen(80, 24)

	for y := 0; y < 24; y++ {
		for x := 0; x < 80; x++ {
			s.SetCell(x, y, Cell{Text: "X", Width: 1})
		}
	}

	s.MoveCursor(40, 12)
	s.ClearScreenBelow()

	if got := s.Cell(39, 12).Text; got != "X" {
		t.Errorf("expected 'X' before cursor, got %q", got)
	}
	if got := s.Cell(40, 12).Text; got != " " {
		t.Errorf("expected ' ' at cursor, got %q", got)
	}
	if got := s.Cell(0, 23).Text; got != " " {
		t.Errorf("expected ' ' on last line, got %q", got)
	}
}

func TestScreenInsertDeleteChars(t *testing.T) {
	s := NewScreen(5, 1)
	for _, r := range "abcde" {
		s.WriteRune(r)
	}

	s.MoveCursor(1, 0)
	s.InsertChars(2)
	if got := s.Line(0).Text(); got != "a  bc" {
		t.Errorf("after insert expected 'a  bc', got %q", got)
	}

	s.DeleteChars(2)
	if got := s.Line(0).Text(); got != "abc  " {
		t.Errorf("after delete expected 'abc  ', got %q", got)
	}
}

func TestScreenDirtyLines(t *testing.T) {
	s := NewScreen(10, 4)

	if got := len(s.DirtyLines()); got != 4 {
		t.Errorf("expected a new screen to be fully dirty, got %d lines", got)
	}

	s.CleanDirtyLines()
	if got := s.DirtyLines(); len(got) != 0 {
		t.Errorf("expected no dirty lines, got %v", got)
	}

	s.MoveCursor(0, 2)
	s.WriteRune('x')
	if got := s.DirtyLines(); !slices.Equal(got, []int{2}) {
		t.Errorf("expected [2] dirty, got %v", got)
	}

	s.MakeAllLinesDirty()
	if got := len(s.DirtyLines()); got != 4 {
		t.Errorf("expected all lines dirty, got %d", got)
	}
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(80, 24)

	s.WriteRune('A')
	s.Resize(100, 30)

	if s.Width() != 100 || s.Height() != 30 {
		t.Errorf("expected 100x30, got %dx%d", s.Width(), s.Height())
	}
	if got := s.Cell(0, 0).Text; got != "A" {
		t.Errorf("expected 'A' preserved after resize, got %q", got)
	}
}

func TestScreenResizeShorterKeepsCursorLine(t *testing.T) {
	h := NewHistory(100)
	s := newScreenWithHistory(10, 5, h)

	for i, r := range "abcde" {
		if i > 0 {
			s.CarriageReturn()
			s.LineFeed()
		}
		s.WriteRune(r)
	}

	s.Resize(10, 3)

	if h.Len() != 2 {
		t.Fatalf("expected 2 lines pushed to history, got %d", h.Len())
	}
	if got := strings.TrimSpace(s.Line(2).Text()); got != "e" {
		t.Errorf("expected cursor line 'e' at the bottom, got %q", got)
	}
	_, y := s.CursorPos()
	if y != 2 {
		t.Errorf("expected cursor y=2, got %d", y)
	}
}

func TestScreenResizeSplitsWideRune(t *testing.T) {
	s := NewScreen(4, 1)
	s.WriteRune('a')
	s.WriteRune('世')

	s.Resize(2, 1)

	if got := s.Cell(1, 0); got.Width != 1 || got.Text != " " {
		t.Errorf("expected a half-cut wide rune to become blank, got %q width %d", got.Text, got.Width)
	}
}

func TestScreenSetForeground(t *testing.T) {
	s := NewScreen(80, 24)

	s.SetForeground(ColorRed)
	s.WriteRune('R')

	if s.Cell(0, 0).Foreground != ColorRed {
		t.Errorf("expected red foreground")
	}
}

func TestScreenGetText(t *testing.T) {
	s := NewScreen(3, 2)
	for _, r := range "hi" {
		s.WriteRune(r)
	}

	if got := s.GetText(); got != "hi \n   " {
		t.Errorf("unexpected text %q", got)
	}
}

func TestLineFromString(t *testing.T) {
	l := LineFromString("a世e\u0301", true)

	if !l.Wrapped {
		t.Error("expected wrapped flag to carry over")
	}
	if got := l.Text(); got != "a世e\u0301" {
		t.Errorf("unexpected text %q", got)
	}
	// a, wide rune, spacer, combined e
	if len(l.Cells) != 4 {
		t.Errorf("expected 4 cells, got %d", len(l.Cells))
	}
}

func TestHistoryTrimCountsDropped(t *testing.T) {
	h := NewHistory(2)
	for _, s := range []string{"a", "b", "c"} {
		h.Add(LineFromString(s, false))
	}

	if h.Len() != 2 {
		t.Errorf("expected 2 lines, got %d", h.Len())
	}
	if h.Dropped() != 1 {
		t.Errorf("expected 1 dropped, got %d", h.Dropped())
	}
	if got := h.Line(0).Text(); got != "b" {
		t.Errorf("expected oldest retained 'b', got %q", got)
	}

	h.Clear()
	if h.Len() != 0 || h.Dropped() != 3 {
		t.Errorf("expected empty history with 3 dropped, got %d/%d", h.Len(), h.Dropped())
	}
}
