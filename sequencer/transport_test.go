package sequencer

import (
	"testing"
	"time"
)

func TestTickPeriodMs(t *testing.T) {
	var tests = []struct {
		bpm, div, want int
	}{
		{120, 1, 500},
		{120, 4, 125},
		{60, 1, 1000},
		{0, 0, 60000},
	}
	for _, tt := range tests {
		if got := TickPeriodMs(tt.bpm, tt.div); got != tt.want {
			t.Errorf("TickPeriodMs(%d, %d) = %d, want %d", tt.bpm, tt.div, got, tt.want)
		}
	}
}

func TestTickPeriodFollowsTempo(t *testing.T) {
	tr := NewTransport(120, 1, 8)
	if tr.TickPeriod() != 500*time.Millisecond {
		t.Fatalf("period %s", tr.TickPeriod())
	}
	tr.SetDivisor(4)
	if tr.TickPeriod() != 125*time.Millisecond {
		t.Fatalf("period after divisor %s", tr.TickPeriod())
	}
	tr.Faster(120)
	if tr.BPM() != 240 || tr.TickPeriod() != 62500*time.Microsecond {
		t.Fatalf("bpm %d period %s", tr.BPM(), tr.TickPeriod())
	}
	tr.Slower(1000)
	if tr.BPM() != 1 {
		t.Fatalf("bpm floor: %d", tr.BPM())
	}
	tr.SetDivisor(0)
	if tr.Divisor() != 1 {
		t.Fatalf("divisor floor: %d", tr.Divisor())
	}
}

func TestTransportStates(t *testing.T) {
	tr := NewTransport(120, 1, 4)
	tr.Pause()
	if tr.State() != Stopped {
		t.Fatalf("pause from stopped moved to %s", tr.State())
	}
	if prev := tr.Start(); prev != Stopped || tr.State() != Running {
		t.Fatalf("start: prev %s now %s", prev, tr.State())
	}
	tr.Pause()
	if tr.State() != Paused {
		t.Fatalf("pause: %s", tr.State())
	}
	tr.Pause()
	if tr.State() != Running {
		t.Fatalf("unpause: %s", tr.State())
	}
	tr.Advance(2)
	tr.Stop()
	if tr.State() != Stopped || tr.Counter() != 1 {
		t.Fatalf("stop: %s counter %d", tr.State(), tr.Counter())
	}
}

func TestLoopCounter(t *testing.T) {
	tr := NewTransport(120, 1, 3)
	tr.SetLoop(true)
	if tr.Counter() != 1 || tr.StepsUntilLoop() != 2 {
		t.Fatalf("counter %d until %d", tr.Counter(), tr.StepsUntilLoop())
	}
	tr.Advance(2)
	if tr.StepsUntilLoop() != 0 {
		t.Fatalf("expected the next tick to reset, %d left", tr.StepsUntilLoop())
	}
	tr.Rewind()
	if tr.Counter() != 1 {
		t.Fatalf("rewind: %d", tr.Counter())
	}

	tr.Advance(2)
	tr.SetLoopLength(2)
	if tr.Counter() != 2 || tr.StepsUntilLoop() != 0 {
		t.Fatalf("shrinking the loop: counter %d", tr.Counter())
	}
	tr.SetLoopLength(0)
	if tr.LoopLength() != 1 {
		t.Fatalf("loop length floor: %d", tr.LoopLength())
	}
}

func TestTempoLimits(t *testing.T) {
	tr := NewTransport(100_000_000_000, 1_000_000, 4)
	if tr.BPM() != MaxBPM || tr.Divisor() != MaxDivisor {
		t.Fatalf("bpm %d divisor %d", tr.BPM(), tr.Divisor())
	}
	if tr.TickPeriod() < time.Millisecond {
		t.Fatalf("period %s", tr.TickPeriod())
	}

	tr.SetBPM(120)
	tr.Faster(int(^uint(0) >> 1))
	if tr.BPM() != MaxBPM {
		t.Fatalf("faster past the limit: %d", tr.BPM())
	}
	tr.Slower(int(^uint(0) >> 1))
	if tr.BPM() != 1 {
		t.Fatalf("slower past the floor: %d", tr.BPM())
	}
	if TickPeriodMs(100_000_000_000, 1) != 60000/MaxBPM {
		t.Fatalf("TickPeriodMs ignores the limit: %d", TickPeriodMs(100_000_000_000, 1))
	}
}
