package terminal

import (
	"strconv"
	"strings"
)

// Parser parses ANSI escape sequences and updates the screen.
type Parser struct {
	screen *Screen

	// Parser state
	state  parserState
	params []int
	inter  []byte // intermediate bytes
	osc    []byte // OSC data

	// UTF-8 decoding state
	utf8Buf   [4]byte // buffer for UTF-8 sequence
	utf8Len   int     // expected length of current UTF-8 sequence
	utf8Count int     // bytes collected so far

	// Callbacks
	onTitle   func(string)
	onOSC     func(cmd int, data string)
	onMode    func(mode int, set bool)
	onReply    func(seq string)
	onWindowOp func(op int)
	onUnknown  func(seq string)
}

type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateEscapeInter
	stateCSI
	stateCSIParam
	stateCSIInter
	stateOSC
	stateDCS
)

// maxOSCLength bounds the OSC buffer so a runaway sequence cannot grow
// it without limit. OSC 52 payloads are the largest legitimate case.
const maxOSCLength = 1 << 20

// modeEraseSaved is reported through the mode callback for ED 3, which
// erases scrollback rather than toggling a mode.
const modeEraseSaved = -3

// NewParser creates a new ANSI parser for the given screen.
func NewParser(screen *Screen) *Parser {
	return &Parser{
		screen: screen,
		state:  stateGround,
		params: make([]int, 0, 16),
		inter:  make([]byte, 0, 4),
		osc:    make([]byte, 0, 256),
	}
}

// SetScreen switches the screen subsequent output is applied to.
func (p *Parser) SetScreen(s *Screen) {
	p.screen = s
}

// SetTitleCallback sets the callback for title changes.
func (p *Parser) SetTitleCallback(fn func(string)) {
	p.onTitle = fn
}

// SetOSCCallback sets the callback for OSC sequences other than titles.
func (p *Parser) SetOSCCallback(fn func(cmd int, data string)) {
	p.onOSC = fn
}

// SetModeCallback sets the callback for private modes the screen does
// not handle itself (cursor keys, mouse, focus, paste, alternate screen).
func (p *Parser) SetModeCallback(fn func(mode int, set bool)) {
	p.onMode = fn
}

// SetReplyCallback sets the callback receiving responses to status and
// attribute queries.
func (p *Parser) SetReplyCallback(fn func(seq string)) {
	p.onReply = fn
}

// SetWindowOpCallback sets the callback for XTWINOPS requests.
func (p *Parser) SetWindowOpCallback(fn func(op int)) {
	p.onWindowOp = fn
}

// SetUnknownCallback sets the callback for unknown sequences.
func (p *Parser) SetUnknownCallback(fn func(seq string)) {
	p.onUnknown = fn
}

// Parse parses the given data and updates the screen.
func (p *Parser) Parse(data []byte) {
	for _, b := range data {
		p.processByte(b)
	}
}

// ParseString parses the given string and updates the screen.
func (p *Parser) ParseString(s string) {
	p.Parse([]byte(s))
}

func (p *Parser) processByte(b byte) {
	switch p.state {
	case stateGround:
		p.processGround(b)
	case stateEscape:
		p.processEscape(b)
	case stateEscapeInter:
		p.processEscapeInter(b)
	case stateCSI:
		p.processCSI(b)
	case stateCSIParam:
		p.processCSIParam(b)
	case stateCSIInter:
		p.processCSIInter(b)
	case stateOSC:
		p.processOSC(b)
	case stateDCS:
		p.processDCS(b)
	}
}

func (p *Parser) processGround(b byte) {
	// If we're in the middle of a UTF-8 sequence, continue collecting
	if p.utf8Len > 0 {
		p.processUTF8Continuation(b)
		return
	}

	switch {
	case b == 0x1B: // ESC
		p.state = stateEscape
		p.params = p.params[:0]
		p.inter = p.inter[:0]
	case b == 0x07: // BEL
	case b == 0x08: // BS
		p.screen.MoveCursorRelative(-1, 0)
	case b == 0x09: // HT
		p.handleTab()
	case b == 0x0A, b == 0x0B, b == 0x0C: // LF, VT, FF
		p.screen.LineFeed()
	case b == 0x0D: // CR
		p.screen.CarriageReturn()
	case b >= 0x20 && b < 0x7F:
		p.screen.WriteRune(rune(b))
	case b >= 0xC0 && b < 0xE0:
		p.startUTF8(b, 2)
	case b >= 0xE0 && b < 0xF0:
		p.startUTF8(b, 3)
	case b >= 0xF0 && b < 0xF8:
		p.startUTF8(b, 4)
	case b >= 0x80 && b < 0xC0: // Unexpected continuation byte
		p.screen.WriteRune('\uFFFD')
	}
}

func (p *Parser) startUTF8(b byte, n int) {
	p.utf8Buf[0] = b
	p.utf8Len = n
	p.utf8Count = 1
}

// processUTF8Continuation handles continuation bytes of a multi-byte UTF-8 sequence.
func (p *Parser) processUTF8Continuation(b byte) {
	if b < 0x80 || b >= 0xC0 {
		// Invalid continuation: emit a replacement and reprocess the byte.
		p.utf8Len = 0
		p.utf8Count = 0
		p.screen.WriteRune('\uFFFD')
		p.processGround(b)
		return
	}

	p.utf8Buf[p.utf8Count] = b
	p.utf8Count++

	if p.utf8Count == p.utf8Len {
		r := p.decodeUTF8()
		p.utf8Len = 0
		p.utf8Count = 0
		p.screen.WriteRune(r)
	}
}

// decodeUTF8 decodes the collected UTF-8 bytes into a rune.
func (p *Parser) decodeUTF8() rune {
	switch p.utf8Len {
	case 2:
		r := rune(p.utf8Buf[0]&0x1F)<<6 |
			rune(p.utf8Buf[1]&0x3F)
		if r < 0x80 {
			return '\uFFFD'
		}
		return r
	case 3:
		r := rune(p.utf8Buf[0]&0x0F)<<12 |
			rune(p.utf8Buf[1]&0x3F)<<6 |
			rune(p.utf8Buf[2]&0x3F)
		if r < 0x800 || (r >= 0xD800 && r <= 0xDFFF) {
			return '\uFFFD'
		}
		return r
	case 4:
		r := rune(p.utf8Buf[0]&0x07)<<18 |
			rune(p.utf8Buf[1]&0x3F)<<12 |
			rune(p.utf8Buf[2]&0x3F)<<6 |
			rune(p.utf8Buf[3]&0x3F)
		if r < 0x10000 || r > 0x10FFFF {
			return '\uFFFD'
		}
		return r
	default:
		return '\uFFFD'
	}
}

func (p *Parser) processEscape(b byte) {
	switch {
	case b == '[': // CSI
		p.state = stateCSI
	case b == ']': // OSC
		p.state = stateOSC
		p.osc = p.osc[:0]
	case b == 'P': // DCS
		p.state = stateDCS
	case b == '7': // DECSC
		p.screen.SaveCursor()
		p.state = stateGround
	case b == '8': // DECRC
		p.screen.RestoreCursor()
		p.state = stateGround
	case b == 'D': // IND
		p.screen.LineFeed()
		p.state = stateGround
	case b == 'E': // NEL
		p.screen.CarriageReturn()
		p.screen.LineFeed()
		p.state = stateGround
	case b == 'M': // RI
		p.screen.ReverseLineFeed()
		p.state = stateGround
	case b == 'c': // RIS
		p.screen.Reset()
		p.state = stateGround
	case b == '\\': // ST
		p.state = stateGround
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
		p.state = stateEscapeInter
	case b >= 0x30 && b <= 0x7E:
		p.handleEscapeSequence(b)
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processEscapeInter(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
	case b >= 0x30 && b <= 0x7E:
		p.handleEscapeSequence(b)
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processCSI(b byte) {
	switch {
	case b >= '0' && b <= '9':
		p.params = append(p.params, int(b-'0'))
		p.state = stateCSIParam
	case b == ';':
		p.params = append(p.params, 0, 0)
		p.state = stateCSIParam
	case b == '?', b == '>', b == '!', b == '=': // Private prefix
		p.inter = append(p.inter, b)
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
		p.state = stateCSIInter
	case b >= 0x40 && b <= 0x7E:
		p.handleCSI(b)
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processCSIParam(b byte) {
	switch {
	case b >= '0' && b <= '9':
		last := len(p.params) - 1
		if p.params[last] < 1<<20 {
			p.params[last] = p.params[last]*10 + int(b-'0')
		}
	case b == ';', b == ':':
		p.params = append(p.params, 0)
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
		p.state = stateCSIInter
	case b >= 0x40 && b <= 0x7E:
		p.handleCSI(b)
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processCSIInter(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
	case b >= 0x40 && b <= 0x7E:
		p.handleCSI(b)
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processOSC(b byte) {
	switch {
	case b == 0x07: // BEL terminates OSC
		p.handleOSC()
		p.state = stateGround
	case b == 0x1B: // ESC starts ST
		p.handleOSC()
		p.state = stateEscape
	case b == 0x9C:
		p.handleOSC()
		p.state = stateGround
	default:
		if len(p.osc) < maxOSCLength {
			p.osc = append(p.osc, b)
		}
	}
}

func (p *Parser) processDCS(b byte) {
	// Consumed until ST
	switch {
	case b == 0x1B:
		p.state = stateEscape
	case b == 0x9C:
		p.state = stateGround
	}
}

func (p *Parser) handleTab() {
	x, y := p.screen.CursorPos()
	nextTab := ((x / 8) + 1) * 8
	if nextTab >= p.screen.Width() {
		nextTab = p.screen.Width() - 1
	}
	p.screen.MoveCursor(nextTab, y)
}

func (p *Parser) handleEscapeSequence(final byte) {
	// Charset selection and friends are not emulated.
	p.unknown("ESC " + string(p.inter) + string(final))
}

func (p *Parser) handleCSI(final byte) {
	private := len(p.inter) > 0 && p.inter[0] == '?'

	switch final {
	case 'A': // CUU
		p.screen.MoveCursorRelative(0, -p.param(0, 1))

	case 'B': // CUD
		p.screen.MoveCursorRelative(0, p.param(0, 1))

	case 'C': // CUF
		p.screen.MoveCursorRelative(p.param(0, 1), 0)

	case 'D': // CUB
		p.screen.MoveCursorRelative(-p.param(0, 1), 0)

	case 'E': // CNL
		n := p.param(0, 1)
		p.screen.CarriageReturn()
		p.screen.MoveCursorRelative(0, n)

	case 'F': // CPL
		n := p.param(0, 1)
		p.screen.CarriageReturn()
		p.screen.MoveCursorRelative(0, -n)

	case 'G', '`': // CHA / HPA
		_, y := p.screen.CursorPos()
		p.screen.MoveCursor(p.param(0, 1)-1, y)

	case 'H', 'f': // CUP / HVP
		row := p.param(0, 1)
		col := p.param(1, 1)
		p.screen.MoveCursor(col-1, row-1)

	case 'J': // ED
		switch p.param(0, 0) {
		case 0:
			p.screen.ClearScreenBelow()
		case 1:
			p.screen.ClearScreenAbove()
		case 2:
			p.screen.ClearScreen()
		case 3:
			if p.onMode != nil {
				p.onMode(modeEraseSaved, true)
			}
		}

	case 'K': // EL
		switch p.param(0, 0) {
		case 0:
			p.screen.ClearLineRight()
		case 1:
			p.screen.ClearLineLeft()
		case 2:
			p.screen.ClearLine()
		}

	case 'L': // IL
		p.screen.InsertLines(p.param(0, 1))

	case 'M': // DL
		p.screen.DeleteLines(p.param(0, 1))

	case 'P': // DCH
		p.screen.DeleteChars(p.param(0, 1))

	case 'S': // SU
		p.screen.ScrollUp(p.param(0, 1))

	case 'T': // SD
		p.screen.ScrollDown(p.param(0, 1))

	case 'X': // ECH
		p.screen.EraseChars(p.param(0, 1))

	case '@': // ICH
		p.screen.InsertChars(p.param(0, 1))

	case 'd': // VPA
		x, _ := p.screen.CursorPos()
		p.screen.MoveCursor(x, p.param(0, 1)-1)

	case 'h': // SM
		if private {
			p.handlePrivateMode(true)
		}

	case 'l': // RM
		if private {
			p.handlePrivateMode(false)
		}

	case 'm': // SGR
		if len(p.inter) == 0 {
			p.handleSGR()
		}

	case 'r': // DECSTBM
		top := p.param(0, 1)
		bottom := p.param(1, p.screen.Height())
		p.screen.SetScrollRegion(top-1, bottom-1)

	case 's': // SCP
		p.screen.SaveCursor()

	case 'u': // RCP
		p.screen.RestoreCursor()

	case 'n': // DSR
		if private {
			return
		}
		switch p.param(0, 0) {
		case 5:
			p.reply("\x1b[0n")
		case 6:
			x, y := p.screen.CursorPos()
			p.reply("\x1b[" + strconv.Itoa(y+1) + ";" + strconv.Itoa(x+1) + "R")
		}

	case 't': // XTWINOPS
		if len(p.inter) == 0 && p.onWindowOp != nil {
			p.onWindowOp(p.param(0, 0))
		}

	case 'c': // DA
		if len(p.inter) == 0 && p.param(0, 0) == 0 {
			p.reply("\x1b[?1;2c")
		}

	case 'q': // DECSCUSR
		if len(p.inter) > 0 && p.inter[0] == ' ' {
			switch p.param(0, 1) {
			case 0, 1, 2:
				p.screen.SetCursorStyle(CursorBlock)
			case 3, 4:
				p.screen.SetCursorStyle(CursorUnderline)
			case 5, 6:
				p.screen.SetCursorStyle(CursorBar)
			}
		}

	default:
		p.unknown("CSI " + string(p.inter) + formatParams(p.params) + string(final))
	}
}

func (p *Parser) handlePrivateMode(set bool) {
	for _, mode := range p.params {
		switch mode {
		case 6: // DECOM
			p.screen.SetOriginMode(set)
		case 7: // DECAWM
			p.screen.SetAutoWrap(set)
		case 12: // Cursor blinking
		case 25: // DECTCEM
			p.screen.SetCursorVisible(set)
		default:
			if p.onMode != nil {
				p.onMode(mode, set)
			}
		}
	}
}

func (p *Parser) handleSGR() {
	if len(p.params) == 0 {
		p.screen.ResetAttributes()
		return
	}

	for i := 0; i < len(p.params); i++ {
		param := p.params[i]
		switch {
		case param == 0:
			p.screen.ResetAttributes()
		case param == 1:
			p.screen.AddAttribute(AttrBold)
		case param == 2:
			p.screen.AddAttribute(AttrDim)
		case param == 3:
			p.screen.AddAttribute(AttrItalic)
		case param == 4, param == 21:
			p.screen.AddAttribute(AttrUnderline)
		case param == 5:
			p.screen.AddAttribute(AttrBlink)
		case param == 7:
			p.screen.AddAttribute(AttrReverse)
		case param == 8:
			p.screen.AddAttribute(AttrHidden)
		case param == 9:
			p.screen.AddAttribute(AttrStrike)
		case param == 22:
			p.screen.RemoveAttribute(AttrBold | AttrDim)
		case param == 23:
			p.screen.RemoveAttribute(AttrItalic)
		case param == 24:
			p.screen.RemoveAttribute(AttrUnderline)
		case param == 25:
			p.screen.RemoveAttribute(AttrBlink)
		case param == 27:
			p.screen.RemoveAttribute(AttrReverse)
		case param == 28:
			p.screen.RemoveAttribute(AttrHidden)
		case param == 29:
			p.screen.RemoveAttribute(AttrStrike)
		case param >= 30 && param <= 37:
			p.screen.SetForeground(ANSIColors[param-30])
		case param == 38:
			i = p.parseExtendedColor(i, true)
		case param == 39:
			p.screen.SetForeground(DefaultForeground)
		case param >= 40 && param <= 47:
			p.screen.SetBackground(ANSIColors[param-40])
		case param == 48:
			i = p.parseExtendedColor(i, false)
		case param == 49:
			p.screen.SetBackground(DefaultBackground)
		case param >= 90 && param <= 97:
			p.screen.SetForeground(ANSIColors[param-90+8])
		case param >= 100 && param <= 107:
			p.screen.SetBackground(ANSIColors[param-100+8])
		}
	}
}

func (p *Parser) parseExtendedColor(i int, foreground bool) int {
	if i+1 >= len(p.params) {
		return i
	}

	set := p.screen.SetBackground
	if foreground {
		set = p.screen.SetForeground
	}

	switch p.params[i+1] {
	case 5: // 256-color
		if i+2 < len(p.params) {
			idx := min(max(p.params[i+2], 0), 255)
			set(ColorFromIndex(idx))
			return i + 2
		}
	case 2: // RGB
		if i+4 < len(p.params) {
			r := clampColorValue(p.params[i+2])
			g := clampColorValue(p.params[i+3])
			b := clampColorValue(p.params[i+4])
			set(ColorFromRGB(r, g, b))
			return i + 4
		}
	}
	return i
}

// clampColorValue clamps an integer to valid RGB range (0-255).
func clampColorValue(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}

func (p *Parser) handleOSC() {
	data := string(p.osc)

	num, value, _ := strings.Cut(data, ";")
	cmd, err := strconv.Atoi(num)
	if err != nil {
		p.unknown("OSC " + data)
		return
	}

	switch cmd {
	case 0, 2: // Window title
		if p.onTitle != nil {
			p.onTitle(value)
		}
	case 1: // Icon name
	default:
		if p.onOSC != nil {
			p.onOSC(cmd, value)
		}
	}
}

func (p *Parser) reply(seq string) {
	if p.onReply != nil {
		p.onReply(seq)
	}
}

func (p *Parser) unknown(seq string) {
	if p.onUnknown != nil {
		p.onUnknown(seq)
	}
}

func (p *Parser) param(index, defaultValue int) int {
	if index < len(p.params) && p.params[index] > 0 {
		return p.params[index]
	}
	return defaultValue
}

func formatParams(params []int) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ";")
}
