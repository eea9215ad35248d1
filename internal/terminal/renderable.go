package terminal

// Renderable is the view of the active screen a renderer draws from.
type Renderable interface {
	// Dimensions returns the visible geometry.
	Dimensions() (rows, cols int)

	// CursorPosition returns the cursor cell and whether it is shown.
	CursorPosition() (x, y int, visible bool)

	// VisibleLines returns copies of the visible rows, top first.
	VisibleLines() []*Line

	// StableTop returns the stable row of the first visible row.
	StableTop() StableRowIndex

	// DirtyLines returns the visible rows changed since CleanDirtyLines.
	DirtyLines() []int

	CleanDirtyLines()
	MakeAllLinesDirty()
}

// Renderable returns a view that always tracks the active screen.
func (t *Terminal) Renderable() Renderable {
	return renderView{t: t}
}

type renderView struct {
	t *Terminal
}

func (v renderView) Dimensions() (rows, cols int) {
	return v.t.Dimensions()
}

func (v renderView) CursorPosition() (x, y int, visible bool) {
	s := v.t.Screen()
	x, y = s.CursorPos()
	return x, y, s.CursorVisible()
}

func (v renderView) VisibleLines() []*Line {
	return v.t.Screen().Lines()
}

func (v renderView) StableTop() StableRowIndex {
	return v.t.visibleTop()
}

func (v renderView) DirtyLines() []int {
	return v.t.Screen().DirtyLines()
}

func (v renderView) CleanDirtyLines() {
	v.t.Screen().CleanDirtyLines()
}

func (v renderView) MakeAllLinesDirty() {
	v.t.Screen().MakeAllLinesDirty()
}
