package music

import (
	"math/rand"
	"time"
)

// Quantizer turns random draws into in-scale MIDI pitches and velocities.
// It is not safe for concurrent use.
type Quantizer struct {
	rng *rand.Rand
}

// NewQuantizer uses rng for every draw; nil seeds from the clock
func NewQuantizer(rng *rand.Rand) *Quantizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Quantizer{rng: rng}
}

// Rand exposes the source so callers can share one seeded stream
func (q *Quantizer) Rand() *rand.Rand {
	return q.rng
}

// GeneratePitch picks an octave uniformly in center±octaveRange and a pitch
// class uniformly among the classes scale allows, then composes
// octave*12 + root offset + class, saturated to 0..127.
func (q *Quantizer) GeneratePitch(root Root, acc Accidental, center, octaveRange int, scale Scale) uint8 {
	return q.FixedPitch(root, acc, center, octaveRange, q.pitchClass(scale))
}

// FixedPitch is GeneratePitch with the pitch class given
func (q *Quantizer) FixedPitch(root Root, acc Accidental, center, octaveRange int, pc int) uint8 {
	octave := center + q.octaveOffset(octaveRange)
	return saturate(octave*12 + Offset(root, acc) + pc)
}

// GenerateVelocity is uniform in [lo, hi]; hi < lo yields lo
func (q *Quantizer) GenerateVelocity(lo, hi uint8) uint8 {
	if hi <= lo {
		return saturate(int(lo))
	}
	return saturate(int(lo) + q.rng.Intn(int(hi)-int(lo)+1))
}

func (q *Quantizer) octaveOffset(octaveRange int) int {
	if octaveRange <= 0 {
		return 0
	}
	return q.rng.Intn(2*octaveRange+1) - octaveRange
}

// pitchClass rejection-samples the 12-entry table
func (q *Quantizer) pitchClass(scale Scale) int {
	table := scale.Table()
	for {
		pc := q.rng.Intn(12)
		if table[pc] {
			return pc
		}
	}
}

// PitchClass returns the class of pitch relative to the key root (0-11)
func PitchClass(pitch uint8, root Root, acc Accidental) int {
	return ((int(pitch)-Offset(root, acc))%12 + 12) % 12
}

func saturate(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
