package life

import (
	"sort"
	"strings"
)

// Cell is a single coordinate on the unbounded plane (row I, column J)
type Cell struct {
	I, J int
}

// Neighbors returns the 8 cells of the Moore neighbourhood
func (c Cell) Neighbors() [8]Cell {
	return [8]Cell{
		{c.I - 1, c.J - 1}, {c.I - 1, c.J}, {c.I - 1, c.J + 1},
		{c.I, c.J - 1}, {c.I, c.J + 1},
		{c.I + 1, c.J - 1}, {c.I + 1, c.J}, {c.I + 1, c.J + 1},
	}
}

// Less orders cells by row, then column
func (c Cell) Less(o Cell) bool {
	if c.I != o.I {
		return c.I < o.I
	}
	return c.J < o.J
}

// Life is the set of alive cells
type Life map[Cell]struct{}

// New builds a Life from the given cells
func New(cells ...Cell) Life {
	l := make(Life, len(cells))
	for _, c := range cells {
		l[c] = struct{}{}
	}
	return l
}

func (l Life) Contains(c Cell) bool {
	_, ok := l[c]
	return ok
}

func (l Life) Len() int {
	return len(l)
}

// Clone returns an independent copy
func (l Life) Clone() Life {
	out := make(Life, len(l))
	for c := range l {
		out[c] = struct{}{}
	}
	return out
}

// Cells returns the alive cells sorted by row, then column
func (l Life) Cells() []Cell {
	cells := make([]Cell, 0, len(l))
	for c := range l {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(a, b int) bool { return cells[a].Less(cells[b]) })
	return cells
}

// Equal reports whether both sets hold the same cells
func (l Life) Equal(o Life) bool {
	if len(l) != len(o) {
		return false
	}
	for c := range l {
		if !o.Contains(c) {
			return false
		}
	}
	return true
}

// Step computes the next generation under B3/S23.
// Only alive cells and their neighbours are considered; l is not modified.
func Step(l Life) Life {
	counts := make(map[Cell]int, len(l)*4)
	for c := range l {
		if _, ok := counts[c]; !ok {
			counts[c] = 0
		}
		for _, n := range c.Neighbors() {
			counts[n]++
		}
	}

	next := make(Life, len(l))
	for c, n := range counts {
		switch {
		case n == 3:
			next[c] = struct{}{}
		case n == 2 && l.Contains(c):
			next[c] = struct{}{}
		}
	}
	return next
}

// Parse reads a plaintext pattern: 'O' (or '*') is alive, anything else dead.
// Row 0 of the text maps to I = top, column 0 to J = left.
func Parse(text string, top, left int) Life {
	l := Life{}
	row := 0
	for _, line := range strings.Split(strings.Trim(text, "\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		for col, r := range []rune(line) {
			if r == 'O' || r == '*' {
				l[Cell{I: top + row, J: left + col}] = struct{}{}
			}
		}
		row++
	}
	return l
}

// String renders the bounding box of l in the Parse format
func (l Life) String() string {
	if len(l) == 0 {
		return ""
	}
	minI, maxI, minJ, maxJ := l.Bounds()
	var b strings.Builder
	for i := minI; i <= maxI; i++ {
		for j := minJ; j <= maxJ; j++ {
			if l.Contains(Cell{i, j}) {
				b.WriteByte('O')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Bounds returns the inclusive bounding box (zero for an empty set)
func (l Life) Bounds() (minI, maxI, minJ, maxJ int) {
	first := true
	for c := range l {
		if first {
			minI, maxI, minJ, maxJ = c.I, c.I, c.J, c.J
			first = false
			continue
		}
		minI = min(minI, c.I)
		maxI = max(maxI, c.I)
		minJ = min(minJ, c.J)
		maxJ = max(maxJ, c.J)
	}
	return
}
