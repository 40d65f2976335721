package music

import (
	"fmt"
	"strings"
)

// Root is a natural note letter
type Root int

const (
	C Root = iota
	D
	E
	F
	G
	A
	B
	numRoots
)

var rootNames = [numRoots]string{"C", "D", "E", "F", "G", "A", "B"}
var rootOffsets = [numRoots]int{0, 2, 4, 5, 7, 9, 11}

// Accidental shifts a root by a semitone
type Accidental int

const (
	Natural Accidental = iota
	Sharp
	Flat
	numAccidentals
)

var accidentalNames = [numAccidentals]string{"natural", "sharp", "flat"}
var accidentalSymbols = [numAccidentals]string{"", "#", "b"}

func (r Root) Valid() bool {
	return r >= 0 && r < numRoots
}

func (r Root) String() string {
	if !r.Valid() {
		return fmt.Sprintf("root(%d)", int(r))
	}
	return rootNames[r]
}

func (r Root) Next() Root {
	return Root((int(r) + 1) % int(numRoots))
}

func (a Accidental) Valid() bool {
	return a >= 0 && a < numAccidentals
}

func (a Accidental) String() string {
	if !a.Valid() {
		return fmt.Sprintf("accidental(%d)", int(a))
	}
	return accidentalNames[a]
}

func (a Accidental) Symbol() string {
	if !a.Valid() {
		return "?"
	}
	return accidentalSymbols[a]
}

func (a Accidental) Next() Accidental {
	return Accidental((int(a) + 1) % int(numAccidentals))
}

// Offset returns the semitone offset of root+accidental from C (-1..12)
func Offset(r Root, a Accidental) int {
	off := 0
	if r.Valid() {
		off = rootOffsets[r]
	}
	switch a {
	case Sharp:
		off++
	case Flat:
		off--
	}
	return off
}

// KeyName formats a root and accidental, e.g. "F#"
func KeyName(r Root, a Accidental) string {
	return r.String() + a.Symbol()
}

func ParseRoot(name string) (Root, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, s := range rootNames {
		if s == n {
			return Root(i), nil
		}
	}
	return C, fmt.Errorf("unknown root %q", name)
}

func ParseAccidental(name string) (Accidental, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "natural", "nat":
		return Natural, nil
	case "sharp", "#", "shp":
		return Sharp, nil
	case "flat", "b", "flt":
		return Flat, nil
	}
	return Natural, fmt.Errorf("unknown accidental %q", name)
}
