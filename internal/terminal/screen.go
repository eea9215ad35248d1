package terminal

import (
	"iter"
	"strings"
	"sync"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// CellAttributes represents text attributes for a cell.
type CellAttributes uint16

const (
	AttrNone      CellAttributes = 0
	AttrBold      CellAttributes = 1 << 0
	AttrDim       CellAttributes = 1 << 1
	AttrItalic    CellAttributes = 1 << 2
	AttrUnderline CellAttributes = 1 << 3
	AttrBlink     CellAttributes = 1 << 4
	AttrReverse   CellAttributes = 1 << 5
	AttrHidden    CellAttributes = 1 << 6
	AttrStrike    CellAttributes = 1 << 7
)

// Has returns true if the attribute is set.
func (a CellAttributes) Has(attr CellAttributes) bool {
	return a&attr != 0
}

// Cell represents a single character cell in the terminal.
//
// Text holds one grapheme cluster. The second column of a double-width
// grapheme is a spacer cell with Width 0 and empty Text.
type Cell struct {
	Text       string
	Width      int
	Foreground Color
	Background Color
	Attributes CellAttributes
}

// EmptyCell returns a cell with default values.
func EmptyCell() Cell {
	return Cell{
		Text:       " ",
		Width:      1,
		Foreground: DefaultForeground,
		Background: DefaultBackground,
		Attributes: AttrNone,
	}
}

// Line represents a single line in the terminal.
type Line struct {
	Cells   []Cell
	Wrapped bool // True if this line wraps to the next
}

// NewLine creates a new line with the given width.
func NewLine(width int) *Line {
	cells := make([]Cell, width)
	for i := range cells {
		cells[i] = EmptyCell()
	}
	return &Line{Cells: cells}
}

// LineFromString builds a line with one cell per grapheme of s.
func LineFromString(s string, wrapped bool) *Line {
	l := &Line{Wrapped: wrapped}
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		c := EmptyCell()
		c.Text = g.Str()
		c.Width = max(g.Width(), 1)
		l.Cells = append(l.Cells, c)
		for i := 1; i < c.Width; i++ {
			l.Cells = append(l.Cells, Cell{Width: 0})
		}
	}
	return l
}

// VisibleCells yields each addressable cell with its column index,
// skipping the spacer halves of wide graphemes.
func (l *Line) VisibleCells() iter.Seq2[int, Cell] {
	return func(yield func(int, Cell) bool) {
		for i, c := range l.Cells {
			if c.Width == 0 {
				continue
			}
			if !yield(i, c) {
				return
			}
		}
	}
}

// Text returns the concatenated text of the line.
func (l *Line) Text() string {
	var sb strings.Builder
	for _, c := range l.VisibleCells() {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// Clone returns a deep copy of the line.
func (l *Line) Clone() *Line {
	cells := make([]Cell, len(l.Cells))
	copy(cells, l.Cells)
	return &Line{Cells: cells, Wrapped: l.Wrapped}
}

// Clear clears the line with empty cells.
func (l *Line) Clear() {
	for i := range l.Cells {
		l.Cells[i] = EmptyCell()
	}
	l.Wrapped = false
}

// ClearRange clears cells in the range [start, end).
func (l *Line) ClearRange(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(l.Cells) {
		end = len(l.Cells)
	}
	for i := start; i < end; i++ {
		l.Cells[i] = EmptyCell()
	}
}

// Screen represents the terminal screen buffer.
type Screen struct {
	mu sync.RWMutex

	width  int
	height int
	lines  []*Line
	dirty  []bool

	// history receives lines scrolled off the top of a full-screen scroll
	// region. Nil for the alternate screen.
	history *History

	// Cursor position (0-indexed)
	cursorX int
	cursorY int

	// Cursor state
	cursorVisible bool
	cursorStyle   CursorStyle

	// Scroll region
	scrollTop    int
	scrollBottom int

	// Current cell attributes for new characters
	currentFg    Color
	currentBg    Color
	currentAttrs CellAttributes

	// Saved cursor state
	savedX, savedY   int
	savedFg, savedBg Color
	savedAttrs       CellAttributes

	// Mode flags
	originMode bool // DECOM - origin mode
	autoWrap   bool // DECAWM - auto wrap mode
}

// CursorStyle represents the cursor appearance.
type CursorStyle int

const (
	CursorBlock CursorStyle = iota
	CursorUnderline
	CursorBar
)

// NewScreen creates a new screen buffer with the given dimensions.
func NewScreen(width, height int) *Screen {
	if width < 1 {
		width = 80
	}
	if height < 1 {
		height = 24
	}

	s := &Screen{
		width:         width,
		height:        height,
		lines:         make([]*Line, height),
		dirty:         make([]bool, height),
		cursorVisible: true,
		cursorStyle:   CursorBlock,
		scrollTop:     0,
		scrollBottom:  height - 1,
		currentFg:     DefaultForeground,
		currentBg:     DefaultBackground,
		autoWrap:      true,
	}

	for i := range s.lines {
		s.lines[i] = NewLine(width)
		s.dirty[i] = true
	}

	return s
}

// newScreenWithHistory creates a screen whose scrolled-off lines are kept.
func newScreenWithHistory(width, height int, h *History) *Screen {
	s := NewScreen(width, height)
	s.history = h
	return s
}

// Width returns the screen width.
func (s *Screen) Width() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width
}

// Height returns the screen height.
func (s *Screen) Height() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

// CursorPos returns the cursor position.
func (s *Screen) CursorPos() (x, y int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return min(s.cursorX, s.width-1), s.cursorY
}

// CursorVisible returns whether the cursor is visible.
func (s *Screen) CursorVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursorVisible
}

// Cell returns the cell at the given position.
// Returns an empty cell if out of bounds.
func (s *Screen) Cell(x, y int) Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return EmptyCell()
	}
	return s.lines[y].Cells[x]
}

// Line returns a copy of the line at the given y position.
func (s *Screen) Line(y int) *Line {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if y < 0 || y >= s.height {
		return nil
	}
	return s.lines[y].Clone()
}

// Lines returns copies of all visible lines.
func (s *Screen) Lines() []*Line {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Line, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.Clone()
	}
	return out
}

// SetCell sets the cell at the given position.
func (s *Screen) SetCell(x, y int, cell Cell) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	s.lines[y].Cells[x] = cell
	s.dirty[y] = true
}

// WriteRune writes a rune at the cursor position and advances the cursor.
// Runes that extend the previous grapheme cluster (combining marks,
// variation selectors, joiners) are merged into the previous cell.
func (s *Screen) WriteRune(r rune) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeRuneLocked(r)
}

func (s *Screen) writeRuneLocked(r rune) {
	// Bounds check
	if len(s.lines) == 0 || s.width == 0 {
		return
	}

	if s.joinPreviousLocked(r) {
		return
	}

	width := runewidth.RuneWidth(r)
	if width < 1 {
		width = 1
	}
	if width > s.width {
		width = s.width
	}

	// Handle auto-wrap at end of line
	if s.cursorX+width > s.width {
		if s.autoWrap {
			if s.cursorY >= 0 && s.cursorY < len(s.lines) {
				s.lines[s.cursorY].Wrapped = true
			}
			s.cursorX = 0
			s.lineFeedLocked()
		} else {
			s.cursorX = s.width - width
		}
	}

	// Ensure cursor is in bounds after potential line feed
	if s.cursorY < 0 || s.cursorY >= len(s.lines) {
		return
	}
	if s.cursorX < 0 || s.cursorX >= len(s.lines[s.cursorY].Cells) {
		return
	}

	cell := Cell{
		Text:       string(r),
		Width:      width,
		Foreground: s.currentFg,
		Background: s.currentBg,
		Attributes: s.currentAttrs,
	}

	line := s.lines[s.cursorY]
	line.Cells[s.cursorX] = cell
	for i := 1; i < width; i++ {
		line.Cells[s.cursorX+i] = Cell{Width: 0, Foreground: s.currentFg, Background: s.currentBg}
	}
	s.dirty[s.cursorY] = true
	s.cursorX += width
}

// joinPreviousLocked appends r to the cell before the cursor when the
// result is still a single grapheme cluster.
func (s *Screen) joinPreviousLocked(r rune) bool {
	if r < 0x80 {
		return false
	}
	x, y := s.cursorX-1, s.cursorY
	if x < 0 {
		if y == 0 || !s.lines[y-1].Wrapped {
			return false
		}
		y--
		x = s.width - 1
	}
	if y < 0 || y >= len(s.lines) || x >= len(s.lines[y].Cells) {
		return false
	}
	for x > 0 && s.lines[y].Cells[x].Width == 0 {
		x--
	}
	prev := &s.lines[y].Cells[x]
	if prev.Text == "" || prev.Text == " " {
		return false
	}
	joined := prev.Text + string(r)
	if uniseg.GraphemeClusterCount(joined) != 1 {
		return false
	}
	prev.Text = joined
	s.dirty[y] = true
	return true
}

// MoveCursor moves the cursor to the specified position.
func (s *Screen) MoveCursor(x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.moveCursorLocked(x, y)
}

func (s *Screen) moveCursorLocked(x, y int) {
	// Clamp to valid range
	if x < 0 {
		x = 0
	}
	if x >= s.width {
		x = s.width - 1
	}

	// Handle origin mode
	top := 0
	bottom := s.height - 1
	if s.originMode {
		top = s.scrollTop
		bottom = s.scrollBottom
		y += top
	}

	if y < top {
		y = top
	}
	if y > bottom {
		y = bottom
	}

	s.cursorX = x
	s.cursorY = y
}

// MoveCursorRelative moves the cursor by the given delta.
func (s *Screen) MoveCursorRelative(dx, dy int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x := min(s.cursorX, s.width-1)
	y := s.cursorY
	if s.originMode {
		y -= s.scrollTop
	}
	s.moveCursorLocked(x+dx, y+dy)
}

// CarriageReturn moves cursor to beginning of current line.
func (s *Screen) CarriageReturn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorX = 0
}

// LineFeed moves cursor down one line, scrolling if needed.
func (s *Screen) LineFeed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lineFeedLocked()
}

func (s *Screen) lineFeedLocked() {
	if s.cursorY == s.scrollBottom {
		s.scrollUpLocked(1)
	} else if s.cursorY < s.height-1 {
		s.cursorY++
	}
}

// ReverseLineFeed moves cursor up one line, scrolling if needed.
func (s *Screen) ReverseLineFeed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursorY == s.scrollTop {
		s.scrollDownLocked(1)
	} else if s.cursorY > 0 {
		s.cursorY--
	}
}

// ScrollUp scrolls the scroll region up by n lines.
func (s *Screen) ScrollUp(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollUpLocked(n)
}

func (s *Screen) scrollUpLocked(n int) {
	if n <= 0 || len(s.lines) == 0 {
		return
	}

	top := s.scrollTop
	bottom := s.scrollBottom

	// Validate scroll region bounds
	if top < 0 {
		top = 0
	}
	if bottom >= len(s.lines) {
		bottom = len(s.lines) - 1
	}
	if top > bottom {
		return
	}

	// Clamp n to scroll region size
	regionSize := bottom - top + 1
	if n > regionSize {
		n = regionSize
	}

	// Lines leaving the top of the screen become scrollback
	if top == 0 && s.history != nil {
		for y := 0; y < n; y++ {
			s.history.Add(s.lines[y])
		}
	}

	// Move lines up
	for y := top; y <= bottom-n; y++ {
		s.lines[y] = s.lines[y+n]
	}

	// Create new blank lines at bottom
	for y := bottom - n + 1; y <= bottom; y++ {
		s.lines[y] = NewLine(s.width)
	}
	s.markDirtyLocked(top, bottom)
}

// ScrollDown scrolls the scroll region down by n lines.
func (s *Screen) ScrollDown(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollDownLocked(n)
}

func (s *Screen) scrollDownLocked(n int) {
	if n <= 0 || len(s.lines) == 0 {
		return
	}

	top := s.scrollTop
	bottom := s.scrollBottom

	// Validate scroll region bounds
	if top < 0 {
		top = 0
	}
	if bottom >= len(s.lines) {
		bottom = len(s.lines) - 1
	}
	if top > bottom {
		return
	}

	// Clamp n to scroll region size
	regionSize := bottom - top + 1
	if n > regionSize {
		n = regionSize
	}

	// Move lines down
	for y := bottom; y >= top+n; y-- {
		s.lines[y] = s.lines[y-n]
	}

	// Create new blank lines at top
	for y := top; y < top+n; y++ {
		s.lines[y] = NewLine(s.width)
	}
	s.markDirtyLocked(top, bottom)
}

// SetScrollRegion sets the scroll region.
func (s *Screen) SetScrollRegion(top, bottom int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if top < 0 {
		top = 0
	}
	if bottom >= s.height {
		bottom = s.height - 1
	}
	if top >= bottom {
		return
	}

	s.scrollTop = top
	s.scrollBottom = bottom

	// Reset cursor to top-left of region (or screen if not origin mode)
	if s.originMode {
		s.cursorX = 0
		s.cursorY = top
	} else {
		s.cursorX = 0
		s.cursorY = 0
	}
}

// ResetScrollRegion resets the scroll region to full screen.
func (s *Screen) ResetScrollRegion() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scrollTop = 0
	s.scrollBottom = s.height - 1
}

// ClearScreen clears the entire screen.
func (s *Screen) ClearScreen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for y := 0; y < s.height; y++ {
		s.lines[y].Clear()
	}
	s.markDirtyLocked(0, s.height-1)
}

// ClearScreenAbove clears from cursor to top of screen.
func (s *Screen) ClearScreenAbove() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for y := 0; y < s.cursorY; y++ {
		s.lines[y].Clear()
	}
	s.lines[s.cursorY].ClearRange(0, s.cursorX+1)
	s.markDirtyLocked(0, s.cursorY)
}

// ClearScreenBelow clears from cursor to bottom of screen.
func (s *Screen) ClearScreenBelow() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines[s.cursorY].ClearRange(s.cursorX, s.width)
	for y := s.cursorY + 1; y < s.height; y++ {
		s.lines[y].Clear()
	}
	s.markDirtyLocked(s.cursorY, s.height-1)
}

// ClearLine clears the entire current line.
func (s *Screen) ClearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[s.cursorY].Clear()
	s.dirty[s.cursorY] = true
}

// ClearLineLeft clears from start of line to cursor.
func (s *Screen) ClearLineLeft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[s.cursorY].ClearRange(0, s.cursorX+1)
	s.dirty[s.cursorY] = true
}

// ClearLineRight clears from cursor to end of line.
func (s *Screen) ClearLineRight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[s.cursorY].ClearRange(s.cursorX, s.width)
	s.lines[s.cursorY].Wrapped = false
	s.dirty[s.cursorY] = true
}

// InsertLines inserts n blank lines at cursor, scrolling down.
func (s *Screen) InsertLines(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursorY < s.scrollTop || s.cursorY > s.scrollBottom {
		return
	}

	oldTop := s.scrollTop
	s.scrollTop = s.cursorY
	s.scrollDownLocked(n)
	s.scrollTop = oldTop
}

// DeleteLines deletes n lines at cursor, scrolling up.
func (s *Screen) DeleteLines(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursorY < s.scrollTop || s.cursorY > s.scrollBottom {
		return
	}

	// Deleted lines are discarded, never pushed to history.
	oldTop := s.scrollTop
	history := s.history
	s.scrollTop = s.cursorY
	s.history = nil
	s.scrollUpLocked(n)
	s.scrollTop = oldTop
	s.history = history
}

// InsertChars inserts n blank characters at cursor.
func (s *Screen) InsertChars(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursorY < 0 || s.cursorY >= len(s.lines) {
		return
	}
	line := s.lines[s.cursorY]
	if n <= 0 || s.cursorX >= s.width {
		return
	}

	maxInsert := s.width - s.cursorX
	if n > maxInsert {
		n = maxInsert
	}

	for x := s.width - 1; x >= s.cursorX+n; x-- {
		line.Cells[x] = line.Cells[x-n]
	}
	for x := s.cursorX; x < s.cursorX+n && x < s.width; x++ {
		line.Cells[x] = EmptyCell()
	}
	s.dirty[s.cursorY] = true
}

// DeleteChars deletes n characters at cursor, shifting left.
func (s *Screen) DeleteChars(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursorY < 0 || s.cursorY >= len(s.lines) {
		return
	}
	line := s.lines[s.cursorY]
	if n <= 0 || s.cursorX >= s.width {
		return
	}

	maxDelete := s.width - s.cursorX
	if n > maxDelete {
		n = maxDelete
	}

	for x := s.cursorX; x < s.width-n; x++ {
		line.Cells[x] = line.Cells[x+n]
	}

	clearStart := s.width - n
	if clearStart < s.cursorX {
		clearStart = s.cursorX
	}
	for x := clearStart; x < s.width; x++ {
		line.Cells[x] = EmptyCell()
	}
	s.dirty[s.cursorY] = true
}

// EraseChars erases n characters at cursor (replace with blanks).
func (s *Screen) EraseChars(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursorY < 0 || s.cursorY >= len(s.lines) {
		return
	}
	line := s.lines[s.cursorY]
	for x := s.cursorX; x < s.cursorX+n && x < s.width; x++ {
		line.Cells[x] = EmptyCell()
	}
	s.dirty[s.cursorY] = true
}

// SetForeground sets the current foreground color.
func (s *Screen) SetForeground(fg Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFg = fg
}

// SetBackground sets the current background color.
func (s *Screen) SetBackground(bg Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentBg = bg
}

// AddAttribute adds an attribute to the current attributes.
func (s *Screen) AddAttribute(attr CellAttributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentAttrs |= attr
}

// RemoveAttribute removes an attribute from the current attributes.
func (s *Screen) RemoveAttribute(attr CellAttributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentAttrs &^= attr
}

// ResetAttributes resets all attributes to default.
func (s *Screen) ResetAttributes() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentFg = DefaultForeground
	s.currentBg = DefaultBackground
	s.currentAttrs = AttrNone
}

// SaveCursor saves the current cursor position and attributes.
func (s *Screen) SaveCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.savedX = s.cursorX
	s.savedY = s.cursorY
	s.savedFg = s.currentFg
	s.savedBg = s.currentBg
	s.savedAttrs = s.currentAttrs
}

// RestoreCursor restores the saved cursor position and attributes.
func (s *Screen) RestoreCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursorX = min(s.savedX, s.width-1)
	s.cursorY = min(s.savedY, s.height-1)
	s.currentFg = s.savedFg
	s.currentBg = s.savedBg
	s.currentAttrs = s.savedAttrs
}

// SetCursorVisible sets cursor visibility.
func (s *Screen) SetCursorVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorVisible = visible
}

// SetCursorStyle sets the cursor style.
func (s *Screen) SetCursorStyle(style CursorStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorStyle = style
}

// SetOriginMode sets origin mode (cursor relative to scroll region).
func (s *Screen) SetOriginMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originMode = enabled
}

// SetAutoWrap sets auto-wrap mode.
func (s *Screen) SetAutoWrap(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoWrap = enabled
}

// Resize resizes the screen. When the screen gets shorter than the cursor
// row, the lines above are pushed into history so the cursor line stays
// visible.
func (s *Screen) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	lines := s.lines
	if excess := s.cursorY - (height - 1); excess > 0 {
		if s.history != nil {
			for _, l := range lines[:excess] {
				s.history.Add(l)
			}
		}
		lines = lines[excess:]
		s.cursorY -= excess
		s.savedY = max(s.savedY-excess, 0)
	}

	newLines := make([]*Line, height)
	for y := 0; y < height; y++ {
		newLines[y] = NewLine(width)
		if y >= len(lines) || lines[y] == nil {
			continue
		}
		old := lines[y]
		copyLen := min(width, len(old.Cells))
		copy(newLines[y].Cells, old.Cells[:copyLen])
		// A wide grapheme cut in half by the new width becomes a blank.
		if copyLen > 0 && copyLen < len(old.Cells) && old.Cells[copyLen].Width == 0 {
			newLines[y].Cells[copyLen-1] = EmptyCell()
		}
		newLines[y].Wrapped = old.Wrapped && width >= len(old.Cells)
	}

	s.lines = newLines
	s.dirty = make([]bool, height)
	s.markDirtyLocked(0, height-1)
	s.width = width
	s.height = height

	s.scrollTop = 0
	s.scrollBottom = height - 1

	s.cursorX = min(max(s.cursorX, 0), width-1)
	s.cursorY = min(max(s.cursorY, 0), height-1)
	s.savedX = min(max(s.savedX, 0), width-1)
	s.savedY = min(max(s.savedY, 0), height-1)
}

// Reset resets the screen to initial state.
func (s *Screen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for y := 0; y < s.height; y++ {
		s.lines[y].Clear()
	}
	s.markDirtyLocked(0, s.height-1)

	s.cursorX = 0
	s.cursorY = 0
	s.cursorVisible = true
	s.cursorStyle = CursorBlock
	s.scrollTop = 0
	s.scrollBottom = s.height - 1
	s.currentFg = DefaultForeground
	s.currentBg = DefaultBackground
	s.currentAttrs = AttrNone
	s.originMode = false
	s.autoWrap = true
}

func (s *Screen) markDirtyLocked(from, to int) {
	for y := max(from, 0); y <= to && y < len(s.dirty); y++ {
		s.dirty[y] = true
	}
}

// DirtyLines returns the indices of visible lines changed since the last
// call to CleanDirtyLines.
func (s *Screen) DirtyLines() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []int
	for y, d := range s.dirty {
		if d {
			out = append(out, y)
		}
	}
	return out
}

// CleanDirtyLines clears the dirty flags of all visible lines.
func (s *Screen) CleanDirtyLines() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.dirty)
}

// MakeAllLinesDirty marks every visible line dirty.
func (s *Screen) MakeAllLinesDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markDirtyLocked(0, s.height-1)
}

// GetText returns the text content of the screen as a string.
func (s *Screen) GetText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	for y := 0; y < s.height; y++ {
		sb.WriteString(s.lines[y].Text())
		if y < s.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// GetTextRange returns the text in the given range.
func (s *Screen) GetTextRange(startX, startY, endX, endY int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	for y := startY; y <= endY && y < s.height; y++ {
		sX := 0
		eX := s.width - 1

		if y == startY {
			sX = startX
		}
		if y == endY {
			eX = endX
		}

		for x := sX; x <= eX && x < s.width; x++ {
			sb.WriteString(s.lines[y].Cells[x].Text)
		}

		if y < endY {
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
