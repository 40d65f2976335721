package sequencer

import (
	"time"

	"cellseq/life"
	"cellseq/mask"
)

// Snapshot is a read-only copy of the run loop's state, published after
// every change. Receivers own the maps.
type Snapshot struct {
	State      State
	BPM        int
	Divisor    int
	TickPeriod time.Duration

	Loop       bool
	LoopLength int
	Counter    int

	Generation uint64
	Steps      uint64 // generations applied since start

	Life     life.Life
	Mask     mask.Mask
	Sounding []uint8
	Settings Settings

	InFlight     bool
	PendingTicks int

	LastTick  time.Duration // compute time of the last adopted batch
	LastBatch int           // steps in the last adopted batch

	Dropped      uint64
	EncodeErrors int
	LastError    error
}

// Hits returns the cells that would fire with this snapshot's Life and Mask
func (s Snapshot) Hits() []life.Cell {
	return s.Mask.Hits(s.Life)
}
