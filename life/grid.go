package life

import "math/rand"

// RandomRadius bounds the randomize window: rows and columns -32..32
const RandomRadius = 32

// Grid owns the current Life plus two snapshots: the seed (last save or
// randomize) and the loop point. Both snapshots are copies.
type Grid struct {
	life Life
	seed Life
	loop Life
}

// NewGrid creates a grid whose seed and loop point are the initial cells
func NewGrid(cells ...Cell) *Grid {
	l := New(cells...)
	return &Grid{
		life: l,
		seed: l.Clone(),
		loop: l.Clone(),
	}
}

// Life returns the current generation. Callers must not modify it;
// use Clone to hand it to another goroutine.
func (g *Grid) Life() Life {
	return g.life
}

func (g *Grid) Contains(c Cell) bool {
	return g.life.Contains(c)
}

func (g *Grid) Populate(c Cell) {
	g.life[c] = struct{}{}
}

func (g *Grid) Unpopulate(c Cell) {
	delete(g.life, c)
}

// Step returns the next generation without touching the grid
func (g *Grid) Step() Life {
	return Step(g.life)
}

// Set adopts l as the current generation
func (g *Grid) Set(l Life) {
	if l == nil {
		l = Life{}
	}
	g.life = l
}

// Randomize fills the window around the origin, each cell alive with
// probability p. The result also becomes the seed.
func (g *Grid) Randomize(p float64, rng *rand.Rand) {
	l := Life{}
	for i := -RandomRadius; i <= RandomRadius; i++ {
		for j := -RandomRadius; j <= RandomRadius; j++ {
			if rng.Float64() < p {
				l[Cell{i, j}] = struct{}{}
			}
		}
	}
	g.life = l
	g.seed = l.Clone()
}

// Save stores the current generation as the seed
func (g *Grid) Save() {
	g.seed = g.life.Clone()
}

// Reset restores the seed
func (g *Grid) Reset() {
	g.life = g.seed.Clone()
}

// Clear empties the grid; the seed is kept
func (g *Grid) Clear() {
	g.life = Life{}
}

func (g *Grid) SetLoopPoint() {
	g.loop = g.life.Clone()
}

// ResetToLoop returns a copy of the loop point. The grid is unchanged;
// the caller decides whether to Set it.
func (g *Grid) ResetToLoop() Life {
	return g.loop.Clone()
}
