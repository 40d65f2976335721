package sequencer

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"cellseq/life"
	"cellseq/mask"
	"cellseq/midi"

	"github.com/Southclaws/fault/ftag"
)

func newTestManager(t *testing.T, mod func(*Options)) *Manager {
	t.Helper()
	opts := DefaultOptions()
	opts.ManualClock = true
	opts.Rand = rand.New(rand.NewSource(1))
	if mod != nil {
		mod(&opts)
	}
	m, err := NewManager(opts)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func run(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-m.Done()
	})
}

func waitFor(t *testing.T, m *Manager, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-m.Updates():
			if cond(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func drain(box *midi.Outbox) []midi.Packet {
	var out []midi.Packet
	for box.Len() > 0 {
		out = append(out, <-box.C())
	}
	return out
}

func countStatus(packets []midi.Packet, status byte) int {
	n := 0
	for _, p := range packets {
		if p[0]&0xF0 == status {
			n++
		}
	}
	return n
}

// gate makes the step worker wait until released
type gate struct {
	release chan struct{}
	calls   atomic.Int32
}

func newGate() *gate {
	return &gate{release: make(chan struct{})}
}

func (g *gate) step(l life.Life) life.Life {
	g.calls.Add(1)
	<-g.release
	return life.Step(l)
}

var blinker = []life.Cell{{I: 0, J: -1}, {I: 0, J: 0}, {I: 0, J: 1}}

func TestLoopCyclesThroughLengthStates(t *testing.T) {
	glider := life.Parse(".O.\n..O\nOOO", 0, 0)
	m := newTestManager(t, func(o *Options) {
		o.Grid = life.NewGrid(glider.Cells()...)
		o.LoopLength = 3
	})
	run(t, m)

	m.Do(Simple(ActionToggleLoop))
	m.Do(Simple(ActionStart))
	waitFor(t, m, func(s Snapshot) bool { return s.State == Running && s.Loop })

	var states []life.Life
	for i := 1; i <= 4; i++ {
		m.Do(Simple(ActionTick))
		s := waitFor(t, m, func(s Snapshot) bool { return s.Steps == uint64(i) && !s.InFlight })
		states = append(states, s.Life)
		want := i%3 + 1
		if s.Counter != want {
			t.Fatalf("tick %d: counter %d, want %d", i, s.Counter, want)
		}
	}

	if !states[0].Equal(life.Step(glider)) || !states[1].Equal(life.Step(life.Step(glider))) {
		t.Fatalf("first two ticks did not step the glider")
	}
	if !states[2].Equal(glider) {
		t.Fatalf("third tick should return to the loop point:\n%v", states[2])
	}
	if !states[3].Equal(states[0]) {
		t.Fatalf("cycle did not repeat")
	}
}

func TestTicksCoalesceWhileInFlight(t *testing.T) {
	g := newGate()
	m := newTestManager(t, func(o *Options) {
		o.Grid = life.NewGrid(blinker...)
	})
	m.step = g.step
	run(t, m)

	m.Do(Simple(ActionStart))
	m.Do(Simple(ActionTick))
	m.Do(Simple(ActionTick))
	m.Do(Simple(ActionTick))
	waitFor(t, m, func(s Snapshot) bool { return s.InFlight && s.PendingTicks == 2 })

	if n := g.calls.Load(); n > 1 {
		t.Fatalf("%d steps started while one was in flight", n)
	}

	close(g.release)
	s := waitFor(t, m, func(s Snapshot) bool { return s.Steps == 3 && !s.InFlight })
	if s.LastBatch != 2 {
		t.Fatalf("coalesced ticks ran as batch of %d", s.LastBatch)
	}
	if g.calls.Load() != 3 {
		t.Fatalf("worker stepped %d times", g.calls.Load())
	}
	// three steps of a blinker leave it vertical
	if !s.Life.Equal(life.New(life.Cell{I: -1}, life.Cell{}, life.Cell{I: 1})) {
		t.Fatalf("unexpected generation:\n%v", s.Life)
	}
}

func TestStaleResultDiscardedAfterStop(t *testing.T) {
	g := newGate()
	m := newTestManager(t, func(o *Options) {
		o.Grid = life.NewGrid(blinker...)
	})
	m.step = g.step
	run(t, m)

	m.Do(Simple(ActionStart))
	m.Do(Simple(ActionTick))
	before := waitFor(t, m, func(s Snapshot) bool { return s.InFlight })

	m.Do(Simple(ActionStop))
	stopped := waitFor(t, m, func(s Snapshot) bool { return s.State == Stopped })
	if stopped.Generation == before.Generation {
		t.Fatalf("stop did not start a new generation")
	}

	close(g.release)
	s := waitFor(t, m, func(s Snapshot) bool { return !s.InFlight })
	if s.Steps != 0 || !s.Life.Equal(life.New(blinker...)) {
		t.Fatalf("stale result was applied: steps=%d\n%v", s.Steps, s.Life)
	}
}

func TestEditsWaitForInFlightStep(t *testing.T) {
	g := newGate()
	m := newTestManager(t, func(o *Options) {
		o.Grid = life.NewGrid(blinker...)
	})
	m.step = g.step
	run(t, m)

	far := life.Cell{I: 20, J: 20}
	m.Do(Simple(ActionStart))
	m.Do(Simple(ActionTick))
	waitFor(t, m, func(s Snapshot) bool { return s.InFlight })

	m.Do(Populate(far))
	m.Do(Unpopulate(life.Cell{I: 0, J: 1}))
	s := waitFor(t, m, func(s Snapshot) bool { return s.InFlight })
	if s.Life.Contains(far) {
		t.Fatalf("edit applied while a step was in flight")
	}

	close(g.release)
	s = waitFor(t, m, func(s Snapshot) bool { return s.Steps == 1 && !s.InFlight })
	want := life.New(life.Cell{I: -1}, life.Cell{}, life.Cell{I: 1}, far)
	if !s.Life.Equal(want) {
		t.Fatalf("got\n%v\nwant\n%v", s.Life, want)
	}
}

func TestWorkerPanicLeavesGrid(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.Grid = life.NewGrid(blinker...)
	})
	m.step = func(life.Life) life.Life { panic("boom") }
	run(t, m)

	m.Do(Simple(ActionStart))
	m.Do(Simple(ActionTick))
	s := waitFor(t, m, func(s Snapshot) bool { return s.LastError != nil && !s.InFlight })

	if !errors.Is(s.LastError, ErrTickComputationFailed) {
		t.Fatalf("got %v", s.LastError)
	}
	if ftag.Get(s.LastError) != ftag.Internal {
		t.Fatalf("tag %q", ftag.Get(s.LastError))
	}
	if s.Steps != 0 || !s.Life.Equal(life.New(blinker...)) {
		t.Fatalf("failed tick advanced the grid")
	}
	if s.State != Running {
		t.Fatalf("failure stopped playback")
	}
}

func TestTickIgnoredUnlessRunning(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.Grid = life.NewGrid(blinker...)
	})
	run(t, m)

	m.Do(Simple(ActionTick))
	m.Do(WithValue(ActionSetBPM, 90))
	s := waitFor(t, m, func(s Snapshot) bool { return s.BPM == 90 })
	if s.Steps != 0 || s.PendingTicks != 0 || s.InFlight {
		t.Fatalf("tick while stopped was scheduled: %+v", s)
	}
}

func fullMask() mask.Mask {
	mk := mask.New()
	for i := -life.RandomRadius; i <= life.RandomRadius; i++ {
		for j := -life.RandomRadius; j <= life.RandomRadius; j++ {
			mk.Check(life.Cell{I: i, J: j})
		}
	}
	return mk
}

func TestVoiceCapHolds(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.Settings.Voices = 3
		o.Settings.Probability = 0
		o.Mask = fullMask()
	})
	run(t, m)

	m.Do(Randomize(0.4))
	m.Do(Simple(ActionStart))
	for i := 1; i <= 20; i++ {
		m.Do(Simple(ActionTick))
		s := waitFor(t, m, func(s Snapshot) bool { return s.Steps == uint64(i) && !s.InFlight })
		if len(s.Sounding) > 3 {
			t.Fatalf("tick %d: %d voices sounding", i, len(s.Sounding))
		}
		drain(m.Outbox())
	}

	m.Do(WithValue(ActionSetVoices, 1))
	s := waitFor(t, m, func(s Snapshot) bool { return s.Settings.Voices == 1 })
	if len(s.Sounding) > 1 {
		t.Fatalf("lowering the cap left %d voices", len(s.Sounding))
	}
}

func TestStopFlushesAllOff(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.Grid = life.NewGrid(blinker...)
		o.Settings.Probability = 0
		o.Mask = fullMask()
	})
	run(t, m)

	m.Do(Simple(ActionStart))
	m.Do(Simple(ActionTick))
	s := waitFor(t, m, func(s Snapshot) bool { return s.Steps == 1 && !s.InFlight })
	if len(s.Sounding) == 0 {
		t.Fatal("no notes sounding after a tick over a masked blinker")
	}
	ons := countStatus(drain(m.Outbox()), 0x90)
	if ons == 0 {
		t.Fatal("no note on sent")
	}

	m.Do(Simple(ActionStop))
	stopped := waitFor(t, m, func(s Snapshot) bool { return s.State == Stopped })
	if len(stopped.Sounding) != 0 {
		t.Fatalf("%d voices left after stop", len(stopped.Sounding))
	}
	if offs := countStatus(drain(m.Outbox()), 0x80); offs != len(s.Sounding) {
		t.Fatalf("stop sent %d note offs for %d sounding notes", offs, len(s.Sounding))
	}
}

func TestTransportMessages(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.SendTransport = true
	})
	run(t, m)

	m.Do(Simple(ActionStart))
	m.Do(Simple(ActionPause))
	m.Do(Simple(ActionStart))
	m.Do(Simple(ActionStop))
	// stopping from pause must not repeat the Stop byte
	m.Do(Simple(ActionStart))
	m.Do(Simple(ActionPause))
	m.Do(Simple(ActionStop))
	m.Do(WithValue(ActionSetBPM, 121))
	waitFor(t, m, func(s Snapshot) bool { return s.State == Stopped && s.BPM == 121 })

	var got []byte
	for _, p := range drain(m.Outbox()) {
		got = append(got, p[0])
	}
	want := []byte{0xFA, 0xFC, 0xFB, 0xFC, 0xFA, 0xFC}
	if string(got) != string(want) {
		t.Fatalf("got %X, want %X", got, want)
	}
}

func TestPausedResultAdoptedSilently(t *testing.T) {
	g := newGate()
	m := newTestManager(t, func(o *Options) {
		o.Grid = life.NewGrid(blinker...)
		o.Settings.Probability = 0
		o.Mask = fullMask()
	})
	m.step = g.step
	run(t, m)

	m.Do(Simple(ActionStart))
	m.Do(Simple(ActionTick))
	waitFor(t, m, func(s Snapshot) bool { return s.InFlight })
	m.Do(Simple(ActionPause))
	waitFor(t, m, func(s Snapshot) bool { return s.State == Paused })
	drain(m.Outbox())

	close(g.release)
	s := waitFor(t, m, func(s Snapshot) bool { return s.Steps == 1 && !s.InFlight })
	if !s.Life.Equal(life.Step(life.New(blinker...))) {
		t.Fatalf("paused result not adopted:\n%v", s.Life)
	}
	if s.State != Paused || len(s.Sounding) != 0 {
		t.Fatalf("state %s, %d voices sounding", s.State, len(s.Sounding))
	}
	if ons := countStatus(drain(m.Outbox()), 0x90); ons != 0 {
		t.Fatalf("%d note ons sent while paused", ons)
	}
}

func TestHugeTempoKeepsRunning(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.ManualClock = false
	})
	run(t, m)

	m.Do(Simple(ActionStart))
	m.Do(WithValue(ActionSetBPM, 100_000_000_000))
	m.Do(WithValue(ActionSetDivisor, 1_000_000))
	s := waitFor(t, m, func(s Snapshot) bool { return s.BPM == MaxBPM && s.Divisor == MaxDivisor })
	if s.TickPeriod <= 0 {
		t.Fatalf("period %s", s.TickPeriod)
	}

	m.Do(Simple(ActionStop))
	waitFor(t, m, func(s Snapshot) bool { return s.State == Stopped })
	select {
	case <-m.Done():
		t.Fatal("run loop exited")
	default:
	}
}

func TestInvalidActionsAreRecorded(t *testing.T) {
	m := newTestManager(t, nil)
	run(t, m)

	m.Do(WithValue(ActionSetChannel, 16))
	s := waitFor(t, m, func(s Snapshot) bool { return s.LastError != nil })
	if !errors.Is(s.LastError, ErrInvalidSetting) || ftag.Get(s.LastError) != ftag.InvalidArgument {
		t.Fatalf("got %v", s.LastError)
	}
	if s.Settings.Channel != 0 {
		t.Fatalf("channel changed to %d", s.Settings.Channel)
	}

	m.Do(WithValue(ActionSetChannel, 9))
	m.Do(WithValue(ActionSetOctaveRange, 2))
	s = waitFor(t, m, func(s Snapshot) bool { return s.Settings.OctaveRange == 2 })
	if s.Settings.Channel != 9 {
		t.Fatalf("valid channel rejected")
	}
}

func TestSeedActions(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.Grid = life.NewGrid(blinker...)
	})
	run(t, m)

	m.Do(Randomize(0.3))
	m.Do(Simple(ActionSave))
	seeded := waitFor(t, m, func(s Snapshot) bool { return s.Life.Len() > 3 })

	m.Do(Simple(ActionClear))
	waitFor(t, m, func(s Snapshot) bool { return s.Life.Len() == 0 })

	m.Do(Populate(life.Cell{I: 99, J: 99}))
	m.Do(Simple(ActionReset))
	s := waitFor(t, m, func(s Snapshot) bool { return !s.Life.Contains(life.Cell{I: 99, J: 99}) && s.Life.Len() > 0 })
	if !s.Life.Equal(seeded.Life) {
		t.Fatal("reset did not restore the saved generation")
	}
}

func TestQuitClosesOutbox(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()
	errc := make(chan error, 1)
	go func() { errc <- m.Run(ctx) }()

	m.Do(Simple(ActionQuit))
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("quit returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not quit")
	}
	if _, ok := <-m.Outbox().C(); ok {
		t.Fatal("outbox still open")
	}
	if m.Do(Simple(ActionStart)) {
		t.Fatal("action accepted after quit")
	}
}
