package device

import (
	"github.com/charmbracelet/x/ansi"

	"github.com/dshills/panekit/internal/terminal"
)

// sgr returns the sequence that resets the current style and selects s.
func sgr(s Style) string {
	var st ansi.Style
	a := s.Attributes
	if a.Has(terminal.AttrBold) {
		st = st.Bold()
	}
	if a.Has(terminal.AttrDim) {
		st = st.Faint()
	}
	if a.Has(terminal.AttrItalic) {
		st = st.Italic()
	}
	if a.Has(terminal.AttrUnderline) {
		st = st.Underline()
	}
	if a.Has(terminal.AttrBlink) {
		st = st.SlowBlink()
	}
	if a.Has(terminal.AttrReverse) {
		st = st.Reverse()
	}
	if a.Has(terminal.AttrHidden) {
		st = st.Conceal()
	}
	if a.Has(terminal.AttrStrike) {
		st = st.Strikethrough()
	}
	if c, ok := ansiColor(s.Foreground); ok {
		st = st.ForegroundColor(c)
	}
	if c, ok := ansiColor(s.Background); ok {
		st = st.BackgroundColor(c)
	}

	if len(st) == 0 {
		return ansi.ResetStyle
	}
	return ansi.ResetStyle + st.String()
}

func ansiColor(c terminal.Color) (ansi.Color, bool) {
	switch {
	case c.Default:
		return nil, false
	case c.Index >= 0 && c.Index < 16:
		return ansi.BasicColor(c.Index), true
	case c.Index >= 16:
		return ansi.IndexedColor(c.Index), true
	default:
		return c.Colorful(), true
	}
}
