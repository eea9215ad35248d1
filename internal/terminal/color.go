package terminal

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color represents a terminal color.
type Color struct {
	R, G, B uint8
	Index   int  // -1 for RGB, 0-255 for indexed
	Default bool // Use default fg/bg
}

// DefaultForeground is the default foreground color.
var DefaultForeground = Color{Default: true}

// DefaultBackground is the default background color.
var DefaultBackground = Color{Default: true}

// Standard ANSI colors (indices 0-15).
var (
	ColorBlack         = Color{Index: 0, R: 0, G: 0, B: 0}
	ColorRed           = Color{Index: 1, R: 205, G: 0, B: 0}
	ColorGreen         = Color{Index: 2, R: 0, G: 205, B: 0}
	ColorYellow        = Color{Index: 3, R: 205, G: 205, B: 0}
	ColorBlue          = Color{Index: 4, R: 0, G: 0, B: 238}
	ColorMagenta       = Color{Index: 5, R: 205, G: 0, B: 205}
	ColorCyan          = Color{Index: 6, R: 0, G: 205, B: 205}
	ColorWhite         = Color{Index: 7, R: 229, G: 229, B: 229}
	ColorBrightBlack   = Color{Index: 8, R: 127, G: 127, B: 127}
	ColorBrightRed     = Color{Index: 9, R: 255, G: 0, B: 0}
	ColorBrightGreen   = Color{Index: 10, R: 0, G: 255, B: 0}
	ColorBrightYellow  = Color{Index: 11, R: 255, G: 255, B: 0}
	ColorBrightBlue    = Color{Index: 12, R: 92, G: 92, B: 255}
	ColorBrightMagenta = Color{Index: 13, R: 255, G: 0, B: 255}
	ColorBrightCyan    = Color{Index: 14, R: 0, G: 255, B: 255}
	ColorBrightWhite   = Color{Index: 15, R: 255, G: 255, B: 255}
)

// ANSIColors is the standard 16-color palette.
var ANSIColors = []Color{
	ColorBlack, ColorRed, ColorGreen, ColorYellow,
	ColorBlue, ColorMagenta, ColorCyan, ColorWhite,
	ColorBrightBlack, ColorBrightRed, ColorBrightGreen, ColorBrightYellow,
	ColorBrightBlue, ColorBrightMagenta, ColorBrightCyan, ColorBrightWhite,
}

// ColorFromIndex returns a color from a 256-color index.
func ColorFromIndex(index int) Color {
	if index < 0 || index > 255 {
		return DefaultForeground
	}

	if index < 16 {
		return ANSIColors[index]
	}

	// 216-color cube (indices 16-231)
	if index < 232 {
		index -= 16
		r := uint8((index / 36) * 51)
		g := uint8(((index / 6) % 6) * 51)
		b := uint8((index % 6) * 51)
		return Color{R: r, G: g, B: b, Index: index + 16}
	}

	// Grayscale (indices 232-255)
	gray := uint8((index-232)*10 + 8)
	return Color{R: gray, G: gray, B: gray, Index: index}
}

// ColorFromRGB creates an RGB color.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Index: -1}
}

// Colorful converts c to a colorful.Color.
func (c Color) Colorful() colorful.Color {
	return rgb255(c.R, c.G, c.B)
}

func rgb255(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Palette is a snapshot of the colors the emulator resolves indexed and
// default colors to. Programs change it with OSC 4, 10, 11 and 12.
type Palette struct {
	Colors     [256]colorful.Color
	Foreground colorful.Color
	Background colorful.Color
	Cursor     colorful.Color
}

// DefaultPalette returns the xterm-compatible default palette.
func DefaultPalette() Palette {
	var p Palette
	for i := range p.Colors {
		c := ColorFromIndex(i)
		p.Colors[i] = c.Colorful()
	}
	p.Foreground = ColorWhite.Colorful()
	p.Background = ColorBlack.Colorful()
	p.Cursor = ColorWhite.Colorful()
	return p
}

// Resolve maps a cell color to its palette value.
func (p *Palette) Resolve(c Color, foreground bool) colorful.Color {
	switch {
	case c.Default && foreground:
		return p.Foreground
	case c.Default:
		return p.Background
	case c.Index >= 0 && c.Index < len(p.Colors):
		return p.Colors[c.Index]
	default:
		return c.Colorful()
	}
}

// parseColorSpec parses an X11 color specification as used by OSC 4/10/11:
// "rgb:R/G/B" with 1-4 hex digits per component, or "#RRGGBB".
func parseColorSpec(spec string) (colorful.Color, error) {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "#") {
		return colorful.Hex(spec)
	}

	rest, ok := strings.CutPrefix(spec, "rgb:")
	if !ok {
		return colorful.Color{}, fmt.Errorf("unsupported color spec %q", spec)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return colorful.Color{}, fmt.Errorf("malformed color spec %q", spec)
	}

	var comps [3]float64
	for i, part := range parts {
		if len(part) == 0 || len(part) > 4 {
			return colorful.Color{}, fmt.Errorf("malformed color component %q", part)
		}
		v, err := strconv.ParseUint(part, 16, 16)
		if err != nil {
			return colorful.Color{}, fmt.Errorf("malformed color component %q: %w", part, err)
		}
		full := float64(uint64(1)<<(4*len(part)) - 1)
		comps[i] = float64(v) / full
	}
	return colorful.Color{R: comps[0], G: comps[1], B: comps[2]}, nil
}
