package mask

import (
	"sort"

	"cellseq/life"
)

// Note is the trigger identity attached to a masked coordinate.
// With On unset the pitch is drawn from the scale each time the cell fires;
// with On set, Value is used as the pitch class (0-11, relative to the root).
// A Velocity of 0 means "no hint".
type Note struct {
	Value    uint8
	Velocity uint8
	On       bool
}

// Mask is the persistent trigger overlay. It only references coordinates:
// a masked cell does not have to be alive.
type Mask map[life.Cell]Note

func New() Mask {
	return Mask{}
}

func (m Mask) Contains(c life.Cell) bool {
	_, ok := m[c]
	return ok
}

// Check marks c with a default Note, keeping any note already there
func (m Mask) Check(c life.Cell) {
	if _, ok := m[c]; ok {
		return
	}
	m[c] = Note{}
}

func (m Mask) Uncheck(c life.Cell) {
	delete(m, c)
}

// SetNote marks c with an explicit note
func (m Mask) SetNote(c life.Cell, n Note) {
	if n.Value > 11 {
		n.Value %= 12
	}
	if n.Velocity > 127 {
		n.Velocity = 127
	}
	m[c] = n
}

// Note returns the note at c
func (m Mask) Note(c life.Cell) (Note, bool) {
	n, ok := m[c]
	return n, ok
}

func (m Mask) Clear() {
	for c := range m {
		delete(m, c)
	}
}

func (m Mask) Len() int {
	return len(m)
}

// Clone returns an independent copy
func (m Mask) Clone() Mask {
	out := make(Mask, len(m))
	for c, n := range m {
		out[c] = n
	}
	return out
}

// Cells returns the masked coordinates sorted by row, then column
func (m Mask) Cells() []life.Cell {
	cells := make([]life.Cell, 0, len(m))
	for c := range m {
		cells = append(cells, c)
	}
	sortCells(cells)
	return cells
}

// Hits returns the coordinates both alive in l and present in the mask,
// sorted by row, then column
func (m Mask) Hits(l life.Life) []life.Cell {
	// iterate the smaller side
	var hits []life.Cell
	if len(m) <= l.Len() {
		for c := range m {
			if l.Contains(c) {
				hits = append(hits, c)
			}
		}
	} else {
		for c := range l {
			if m.Contains(c) {
				hits = append(hits, c)
			}
		}
	}
	sortCells(hits)
	return hits
}

func sortCells(cells []life.Cell) {
	sort.Slice(cells, func(a, b int) bool { return cells[a].Less(cells[b]) })
}
