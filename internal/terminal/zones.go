package terminal

// SemanticType classifies a region of output reported by shell integration.
type SemanticType int

const (
	SemanticOutput SemanticType = iota
	SemanticInput
	SemanticPrompt
)

func (t SemanticType) String() string {
	switch t {
	case SemanticOutput:
		return "output"
	case SemanticInput:
		return "input"
	case SemanticPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// SemanticZone is a contiguous region of a single SemanticType. Start and
// end are inclusive cell positions in stable rows.
type SemanticZone struct {
	StartX int
	StartY StableRowIndex
	EndX   int
	EndY   StableRowIndex
	Type   SemanticType
}

// zonePos is a cell position in stable coordinates.
type zonePos struct {
	x int
	y StableRowIndex
}

func (a zonePos) before(b zonePos) bool {
	return a.y < b.y || (a.y == b.y && a.x < b.x)
}

// zoneTracker records OSC 133 marks as zones.
type zoneTracker struct {
	closed []SemanticZone
	open   bool
	start  zonePos
	kind   SemanticType
}

// mark ends the open zone just before pos and, unless end is set, opens
// a zone of kind at pos.
func (z *zoneTracker) mark(pos zonePos, cols int, kind SemanticType, end bool) {
	z.closeAt(pos, cols)
	if end {
		return
	}
	z.open = true
	z.start = pos
	z.kind = kind
}

func (z *zoneTracker) closeAt(pos zonePos, cols int) {
	if !z.open {
		return
	}
	z.open = false

	last := zonePos{x: pos.x - 1, y: pos.y}
	if last.x < 0 {
		last = zonePos{x: cols - 1, y: pos.y - 1}
	}
	if last.before(z.start) {
		return
	}
	z.closed = append(z.closed, SemanticZone{
		StartX: z.start.x,
		StartY: z.start.y,
		EndX:   last.x,
		EndY:   last.y,
		Type:   z.kind,
	})
}

// zones returns the closed zones plus the open zone extended to cursor.
func (z *zoneTracker) zones(cursor zonePos) []SemanticZone {
	out := make([]SemanticZone, 0, len(z.closed)+1)
	out = append(out, z.closed...)
	if z.open && !cursor.before(z.start) {
		out = append(out, SemanticZone{
			StartX: z.start.x,
			StartY: z.start.y,
			EndX:   cursor.x,
			EndY:   cursor.y,
			Type:   z.kind,
		})
	}
	return out
}

// trim drops zones that end before first. A zone straddling first is
// clipped to start there.
func (z *zoneTracker) trim(first StableRowIndex) {
	kept := z.closed[:0]
	for _, zone := range z.closed {
		if zone.EndY < first {
			continue
		}
		if zone.StartY < first {
			zone.StartY = first
			zone.StartX = 0
		}
		kept = append(kept, zone)
	}
	clear(z.closed[len(kept):])
	z.closed = kept

	if z.open && z.start.y < first {
		z.start = zonePos{x: 0, y: first}
	}
}

func (z *zoneTracker) reset() {
	z.closed = nil
	z.open = false
}
