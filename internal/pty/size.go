package pty

import "fmt"

// Size is the geometry of a pseudo-terminal. Pixel dimensions are zero
// when unknown.
type Size struct {
	Rows        uint16
	Cols        uint16
	PixelWidth  uint16
	PixelHeight uint16
}

// Valid reports whether the size has at least one row and one column.
func (s Size) Valid() bool {
	return s.Rows > 0 && s.Cols > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Cols, s.Rows)
}
