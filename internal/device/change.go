package device

import "github.com/dshills/panekit/internal/terminal"

// Change is one rendering operation.
type Change interface {
	isChange()
}

// CursorPosition moves the cursor to a zero-based cell.
type CursorPosition struct {
	X, Y int
}

// SetStyle sets the style of text rendered after it.
type SetStyle struct {
	Style Style
}

// Text renders text at the cursor, advancing it.
type Text string

// ClearScreen clears the screen with the default style and homes the
// cursor.
type ClearScreen struct{}

// CursorVisibility shows or hides the cursor.
type CursorVisibility bool

// Title sets the window title.
type Title string

func (CursorPosition) isChange()   {}
func (SetStyle) isChange()         {}
func (Text) isChange()             {}
func (ClearScreen) isChange()      {}
func (CursorVisibility) isChange() {}
func (Title) isChange()            {}

// Style is a set of cell colors and attributes.
type Style struct {
	Foreground terminal.Color
	Background terminal.Color
	Attributes terminal.CellAttributes
}

// DefaultStyle uses the terminal's default colors and no attributes.
var DefaultStyle = Style{
	Foreground: terminal.DefaultForeground,
	Background: terminal.DefaultBackground,
}

// CellStyle returns the style of an emulator cell.
func CellStyle(c terminal.Cell) Style {
	return Style{Foreground: c.Foreground, Background: c.Background, Attributes: c.Attributes}
}

// LineChanges renders an emulator line at row y, switching style only
// where it changes.
func LineChanges(y int, line *terminal.Line) []Change {
	changes := []Change{CursorPosition{X: 0, Y: y}}
	var (
		style Style
		run   []byte
		first = true
	)
	for _, cell := range line.VisibleCells() {
		s := CellStyle(cell)
		if first || s != style {
			if len(run) > 0 {
				changes = append(changes, Text(run))
				run = run[:0]
			}
			changes = append(changes, SetStyle{Style: s})
			style, first = s, false
		}
		run = append(run, cell.Text...)
	}
	if len(run) > 0 {
		changes = append(changes, Text(run))
	}
	return changes
}
