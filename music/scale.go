package music

import (
	"fmt"
	"strings"
)

// Scale names a mode; its pitch-class table is fixed
type Scale int

const (
	Chromatic Scale = iota
	Major
	Ionian
	Dorian
	Phrygian
	Lydian
	Mixolydian
	Aeolian
	Locrian
	MajorPentatonic
	MinorPentatonic
	HarmonicMinor
	MelodicMinor
	WholeTone
	numScales
)

var scaleNames = [numScales]string{
	"chromatic", "major", "ionian", "dorian", "phrygian", "lydian",
	"mixolydian", "aeolian", "locrian", "major-pentatonic",
	"minor-pentatonic", "harmonic-minor", "melodic-minor", "whole-tone",
}

var (
	diatonic   = [12]bool{true, false, true, false, true, true, false, true, false, true, false, true}
	pentatonic = [12]bool{true, false, true, false, true, false, false, true, false, true, false, false}
)

// rotate starts the table at semitone n, giving the mode built on that degree
func rotate(t [12]bool, n int) [12]bool {
	var out [12]bool
	for i := range out {
		out[i] = t[(i+n)%12]
	}
	return out
}

func classes(pcs ...int) [12]bool {
	var out [12]bool
	for _, pc := range pcs {
		out[pc] = true
	}
	return out
}

var scaleTables = [numScales][12]bool{
	Chromatic:       classes(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11),
	Major:           diatonic,
	Ionian:          diatonic,
	Dorian:          rotate(diatonic, 2),
	Phrygian:        rotate(diatonic, 4),
	Lydian:          rotate(diatonic, 5),
	Mixolydian:      rotate(diatonic, 7),
	Aeolian:         rotate(diatonic, 9),
	Locrian:         rotate(diatonic, 11),
	MajorPentatonic: pentatonic,
	MinorPentatonic: rotate(pentatonic, 9),
	HarmonicMinor:   classes(0, 2, 3, 5, 7, 8, 11),
	MelodicMinor:    classes(0, 2, 3, 5, 7, 9, 11),
	WholeTone:       classes(0, 2, 4, 6, 8, 10),
}

// Scales lists every known scale in display order
func Scales() []Scale {
	out := make([]Scale, numScales)
	for i := range out {
		out[i] = Scale(i)
	}
	return out
}

// Table returns the 12-entry membership table, index 0 = root
func (s Scale) Table() [12]bool {
	if s < 0 || s >= numScales {
		return scaleTables[Chromatic]
	}
	return scaleTables[s]
}

// Allows reports whether pitch class pc (relative to the root) is in the scale
func (s Scale) Allows(pc int) bool {
	pc = ((pc % 12) + 12) % 12
	return s.Table()[pc]
}

func (s Scale) Valid() bool {
	return s >= 0 && s < numScales
}

func (s Scale) String() string {
	if !s.Valid() {
		return fmt.Sprintf("scale(%d)", int(s))
	}
	return scaleNames[s]
}

// Next cycles through the scales (used by the front end)
func (s Scale) Next() Scale {
	return Scale((int(s) + 1) % int(numScales))
}

// ParseScale accepts the names returned by String, case-insensitively,
// with spaces or underscores in place of dashes
func ParseScale(name string) (Scale, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "-", "_", "-").Replace(n)
	for i, s := range scaleNames {
		if s == n {
			return Scale(i), nil
		}
	}
	if n == "minor" {
		return Aeolian, nil
	}
	return Chromatic, fmt.Errorf("unknown scale %q", name)
}
