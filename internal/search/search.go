// Package search finds text in a terminal snapshot.
//
// Lines are scanned top to bottom. The text of every visible cell is
// appended to a haystack while a coordinate table records, for each cell,
// the haystack byte offset its text starts at together with the cell's
// column and stable row. Soft-wrapped lines continue the same paragraph,
// so matches that span a wrap are found. Match offsets are mapped back to
// cell coordinates through the table.
package search

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dshills/panekit/internal/terminal"
)

// Kind selects how a Pattern is matched.
type Kind int

const (
	// CaseSensitive matches the pattern text exactly.
	CaseSensitive Kind = iota
	// CaseInsensitive matches the pattern text ignoring case.
	CaseInsensitive
	// Regex matches the pattern text as an RE2 regular expression.
	Regex
)

func (k Kind) String() string {
	switch k {
	case CaseSensitive:
		return "case-sensitive"
	case CaseInsensitive:
		return "case-insensitive"
	case Regex:
		return "regex"
	default:
		return "unknown"
	}
}

// Pattern is a search query.
type Pattern struct {
	Kind Kind
	Text string
}

// Result is the span of one match. X values are cell columns and Y values
// stable rows. The end is the cell where the text following the match
// starts, or the last cell of the paragraph when the match runs to its end.
type Result struct {
	StartX int
	StartY terminal.StableRowIndex
	EndX   int
	EndY   terminal.StableRowIndex
}

// coord maps a haystack byte offset to the cell whose text starts there.
type coord struct {
	byteIdx     int
	graphemeIdx int
	stableRow   terminal.StableRowIndex
}

// resolve maps a haystack offset to a cell. An offset between two entries
// belongs to the preceding one; offsets at or past the last entry resolve
// to the last entry. coords must not be empty.
func resolve(idx int, coords []coord) (int, terminal.StableRowIndex) {
	i := sort.Search(len(coords), func(i int) bool {
		return coords[i].byteIdx > idx
	})
	c := coords[max(i-1, 0)]
	return c.graphemeIdx, c.stableRow
}

// matcher finds non-overlapping matches in a haystack and returns their
// byte offsets as [start, end) pairs.
type matcher func(haystack string) [][]int

func literalMatcher(needle string) matcher {
	return func(haystack string) [][]int {
		var out [][]int
		for off := 0; off <= len(haystack); {
			i := strings.Index(haystack[off:], needle)
			if i < 0 {
				break
			}
			start := off + i
			out = append(out, []int{start, start + len(needle)})
			off = start + len(needle)
		}
		return out
	}
}

func regexMatcher(re *regexp.Regexp) matcher {
	return func(haystack string) [][]int {
		return re.FindAllStringIndex(haystack, -1)
	}
}

// Search returns every match of p in snap, in scan order. Invalid regular
// expressions and empty literal patterns yield no results. The only error
// returned is the context's, checked once per line.
func Search(ctx context.Context, snap *terminal.Snapshot, p Pattern) ([]Result, error) {
	var (
		match matcher
		fold  cases.Caser
	)
	switch p.Kind {
	case Regex:
		re, err := regexp.Compile(p.Text)
		if err != nil {
			return nil, nil
		}
		match = regexMatcher(re)
	case CaseInsensitive:
		fold = cases.Lower(language.Und)
		if p.Text == "" {
			return nil, nil
		}
		match = literalMatcher(fold.String(p.Text))
	default:
		if p.Text == "" {
			return nil, nil
		}
		match = literalMatcher(p.Text)
	}

	s := scanner{match: match}
	for phys, line := range snap.Lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := snap.StableRow(phys)

		for x, cell := range line.VisibleCells() {
			s.coords = append(s.coords, coord{
				byteIdx:     s.haystack.Len(),
				graphemeIdx: x,
				stableRow:   row,
			})
			if p.Kind == CaseInsensitive {
				s.haystack.WriteString(fold.String(cell.Text))
			} else {
				s.haystack.WriteString(cell.Text)
			}
		}

		if line.Wrapped {
			continue
		}
		if p.Kind == Regex {
			s.haystack.WriteByte('\n')
		} else {
			s.collect()
			s.reset()
		}
	}
	s.collect()

	return s.results, nil
}

type scanner struct {
	match    matcher
	haystack strings.Builder
	coords   []coord
	results  []Result
}

func (s *scanner) collect() {
	if s.haystack.Len() == 0 || len(s.coords) == 0 {
		return
	}
	h := s.haystack.String()
	for _, m := range s.match(h) {
		startX, startY := resolve(m[0], s.coords)
		endX, endY := resolve(m[1], s.coords)
		s.results = append(s.results, Result{
			StartX: startX,
			StartY: startY,
			EndX:   endX,
			EndY:   endY,
		})
	}
}

func (s *scanner) reset() {
	s.haystack.Reset()
	s.coords = s.coords[:0]
}
