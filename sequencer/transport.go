package sequencer

import "time"

// State is the playback state
type State int

const (
	Stopped State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// Transport defaults
const (
	DefaultBPM        = 120
	DefaultDivisor    = 1
	DefaultLoopLength = 16

	MaxBPM     = 999
	MaxDivisor = 16
)

// Transport holds tempo, playback state and the loop counter. The tick
// period is always derived from bpm and divisor.
type Transport struct {
	state      State
	bpm        int
	divisor    int
	loop       bool
	loopLength int
	counter    int
}

func NewTransport(bpm, divisor, loopLength int) *Transport {
	return &Transport{
		bpm:        clampBPM(bpm),
		divisor:    clampDivisor(divisor),
		loopLength: max(loopLength, 1),
		counter:    1,
	}
}

func (t *Transport) State() State    { return t.state }
func (t *Transport) BPM() int        { return t.bpm }
func (t *Transport) Divisor() int    { return t.divisor }
func (t *Transport) Loop() bool      { return t.loop }
func (t *Transport) LoopLength() int { return t.loopLength }

// Counter is the position inside the loop, 1..LoopLength
func (t *Transport) Counter() int { return t.counter }

// Start moves Stopped or Paused to Running and returns the previous state
func (t *Transport) Start() State {
	prev := t.state
	t.state = Running
	return prev
}

// Stop always lands in Stopped and rewinds the counter
func (t *Transport) Stop() {
	t.state = Stopped
	t.counter = 1
}

// Pause toggles Running and Paused; it does nothing while Stopped
func (t *Transport) Pause() {
	switch t.state {
	case Running:
		t.state = Paused
	case Paused:
		t.state = Running
	}
}

func clampBPM(bpm int) int {
	return min(max(bpm, 1), MaxBPM)
}

func clampDivisor(d int) int {
	return min(max(d, 1), MaxDivisor)
}

func (t *Transport) SetBPM(bpm int) {
	t.bpm = clampBPM(bpm)
}

// Faster and Slower step the tempo by n, staying within 1..MaxBPM
func (t *Transport) Faster(n int) {
	t.SetBPM(t.bpm + min(max(n, 0), MaxBPM))
}

func (t *Transport) Slower(n int) {
	t.SetBPM(t.bpm - min(max(n, 0), MaxBPM))
}

func (t *Transport) SetDivisor(d int) {
	t.divisor = clampDivisor(d)
}

// TickPeriod is one minute split into bpm*divisor ticks. The tempo limits
// keep it well above zero.
func (t *Transport) TickPeriod() time.Duration {
	return time.Minute / time.Duration(t.bpm*t.divisor)
}

// TickPeriodMs returns the tick period in whole milliseconds
func TickPeriodMs(bpm, divisor int) int {
	return 60000 / (clampBPM(bpm) * clampDivisor(divisor))
}

// SetLoop switches loop mode; turning it on rewinds the counter
func (t *Transport) SetLoop(on bool) {
	if on && !t.loop {
		t.counter = 1
	}
	t.loop = on
}

func (t *Transport) SetLoopLength(n int) {
	t.loopLength = max(n, 1)
	if t.counter > t.loopLength {
		t.counter = t.loopLength
	}
}

// StepsUntilLoop is how many steps can run before the next tick must
// return to the loop point. Zero means the next tick is the reset.
func (t *Transport) StepsUntilLoop() int {
	return t.loopLength - t.counter
}

// Advance counts n applied steps
func (t *Transport) Advance(n int) {
	t.counter += n
}

// Rewind is the loop reset: the counter goes back to 1
func (t *Transport) Rewind() {
	t.counter = 1
}
