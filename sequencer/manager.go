package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"cellseq/debug"
	"cellseq/life"
	"cellseq/mask"
	"cellseq/midi"
	"cellseq/music"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// ErrTickComputationFailed means the step worker did not finish; the tick
// is dropped and the grid did not advance.
var ErrTickComputationFailed = errors.New("tick computation failed")

// Options configure a Manager
type Options struct {
	Settings   Settings
	BPM        int
	Divisor    int
	LoopLength int

	Encoder midi.Encoder
	// SendTransport emits Start/Continue/Stop on playback changes
	SendTransport bool
	// ManualClock disables the internal ticker; only ActionTick advances
	ManualClock bool

	Grid   *life.Grid
	Mask   mask.Mask
	Outbox *midi.Outbox
	Rand   *rand.Rand
}

func DefaultOptions() Options {
	return Options{
		Settings:   DefaultSettings(),
		BPM:        DefaultBPM,
		Divisor:    DefaultDivisor,
		LoopLength: DefaultLoopLength,
	}
}

type result struct {
	gen   uint64
	steps int
	life  life.Life
	took  time.Duration
	err   error
}

// Manager is the single owner of the grid, mask, transport and voices.
// Everything reaches it as an Action through Do and leaves as a Snapshot on
// Updates; Run is the only goroutine that touches its state.
type Manager struct {
	opts    Options
	actions chan Action
	results chan result
	updates chan Snapshot
	done    chan struct{}
	outbox  *midi.Outbox

	// owned by Run
	ctx       context.Context
	grid      *life.Grid
	mask      mask.Mask
	transport *Transport
	settings  Settings
	voices    *midi.Voices
	quant     *music.Quantizer
	rng       *rand.Rand
	encoder   midi.Encoder
	ticker    *time.Ticker

	gen          uint64
	inFlight     bool
	flightGen    uint64
	pendingTicks int
	pendingEdits map[life.Cell]bool

	steps        uint64
	lastTick     time.Duration
	lastBatch    int
	encodeErrors int
	lastErr      error

	step func(life.Life) life.Life
}

// NewManager checks opts and builds a stopped manager
func NewManager(opts Options) (*Manager, error) {
	if err := opts.Settings.Validate(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("sequencer settings"))
	}
	if opts.Grid == nil {
		opts.Grid = life.NewGrid()
	}
	if opts.Mask == nil {
		opts.Mask = mask.New()
	}
	if opts.Outbox == nil {
		opts.Outbox = midi.NewOutbox(midi.DefaultOutboxSize)
	}
	quant := music.NewQuantizer(opts.Rand)

	return &Manager{
		opts:         opts,
		actions:      make(chan Action, 64),
		results:      make(chan result, 1),
		updates:      make(chan Snapshot, 1),
		done:         make(chan struct{}),
		outbox:       opts.Outbox,
		grid:         opts.Grid,
		mask:         opts.Mask,
		transport:    NewTransport(opts.BPM, opts.Divisor, opts.LoopLength),
		settings:     opts.Settings,
		voices:       midi.NewVoices(opts.Settings.Voices),
		quant:        quant,
		rng:          quant.Rand(),
		encoder:      opts.Encoder,
		pendingEdits: make(map[life.Cell]bool),
		step:         life.Step,
	}, nil
}

// Outbox is where encoded packets go; the caller pumps it to a port
func (m *Manager) Outbox() *midi.Outbox {
	return m.outbox
}

// Updates delivers the latest snapshot; older unread ones are replaced
func (m *Manager) Updates() <-chan Snapshot {
	return m.updates
}

// Done is closed when Run returns
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Do queues an action; false once the manager has stopped
func (m *Manager) Do(a Action) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.actions <- a:
		return true
	case <-m.done:
		return false
	}
}

// Run owns the state until ctx is done or a Quit action arrives. It closes
// the outbox on the way out, after silencing every voice.
func (m *Manager) Run(ctx context.Context) error {
	m.ctx = ctx
	defer close(m.done)
	defer m.outbox.Close()
	defer m.stopClock()

	m.publish()

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return ctx.Err()
		case a := <-m.actions:
			if a.Kind == ActionQuit {
				m.shutdown()
				return nil
			}
			if err := m.apply(a); err != nil {
				m.fail(err)
			}
			m.publish()
		case <-m.clock():
			m.tick()
		case r := <-m.results:
			m.adopt(r)
		}
	}
}

func (m *Manager) apply(a Action) error {
	debug.Log("action", "%s", a)

	switch a.Kind {
	case ActionTogglePlayback:
		if m.transport.State() == Running {
			m.stop()
		} else {
			m.start()
		}
	case ActionStart:
		m.start()
	case ActionStop:
		m.stop()
	case ActionPause:
		m.pause()
	case ActionFaster:
		m.transport.Faster(max(a.Value, 1))
		m.retime()
	case ActionSlower:
		m.transport.Slower(max(a.Value, 1))
		m.retime()
	case ActionSetBPM:
		m.transport.SetBPM(a.Value)
		m.retime()
	case ActionSetDivisor:
		m.transport.SetDivisor(a.Value)
		m.retime()

	case ActionSetScale, ActionSetRoot, ActionSetAccidental,
		ActionSetOctaveCenter, ActionSetOctaveRange,
		ActionSetVelocityMin, ActionSetVelocityMax,
		ActionSetChannel, ActionSetVoices, ActionSetProbability:
		return m.applySetting(a)

	case ActionPopulate:
		m.edit(a.Cell, true)
	case ActionUnpopulate:
		m.edit(a.Cell, false)
	case ActionCheck:
		m.mask.Check(a.Cell)
	case ActionUncheck:
		m.mask.Uncheck(a.Cell)
	case ActionSetNote:
		m.mask.SetNote(a.Cell, a.Note)
	case ActionClearMask:
		m.mask.Clear()

	case ActionRandomize:
		if a.Prob < 0 || a.Prob > 1 {
			return invalid("randomize density %.2f not within 0..1", a.Prob)
		}
		m.invalidate()
		m.grid.Randomize(a.Prob, m.rng)
	case ActionClear:
		m.invalidate()
		m.grid.Clear()
	case ActionSave:
		m.grid.Save()
	case ActionReset:
		m.invalidate()
		m.grid.Reset()

	case ActionToggleLoop:
		on := !m.transport.Loop()
		if on {
			m.grid.SetLoopPoint()
		}
		m.transport.SetLoop(on)
	case ActionSetLoopLength:
		m.transport.SetLoopLength(a.Value)
	case ActionSetLoopPoint:
		m.grid.SetLoopPoint()
		m.transport.Rewind()

	case ActionTick:
		m.tick()
	default:
		return invalid("unknown action %s", a.Kind)
	}
	return nil
}

func (m *Manager) applySetting(a Action) error {
	prev := m.settings
	if err := m.settings.apply(a); err != nil {
		return err
	}
	if m.settings.Channel != prev.Channel {
		m.send(m.voices.AllOff(prev.Channel)...)
	}
	if m.settings.Voices != prev.Voices {
		m.send(m.voices.SetCap(m.settings.Voices, m.settings.Channel)...)
	}
	return nil
}

// Transport

func (m *Manager) start() {
	prev := m.transport.Start()
	if prev == Running {
		return
	}
	if m.opts.SendTransport {
		if prev == Paused {
			m.send(midi.Realtime(midi.Continue))
		} else {
			m.send(midi.Realtime(midi.Start))
		}
	}
	m.startClock()
}

// stop silences every voice before the transport reports Stopped. Work
// still in flight belongs to the old generation and will be discarded.
func (m *Manager) stop() {
	m.invalidate()
	m.pendingTicks = 0
	m.send(m.voices.AllOff(m.settings.Channel)...)
	// Pause already sent Stop on its way out of Running
	if m.opts.SendTransport && m.transport.State() == Running {
		m.send(midi.Realtime(midi.Stop))
	}
	m.transport.Stop()
	m.stopClock()
}

func (m *Manager) pause() {
	switch m.transport.State() {
	case Running:
		m.transport.Pause()
		m.pendingTicks = 0
		m.stopClock()
		m.send(m.voices.AllOff(m.settings.Channel)...)
		if m.opts.SendTransport {
			m.send(midi.Realtime(midi.Stop))
		}
	case Paused:
		m.start()
	}
}

func (m *Manager) shutdown() {
	debug.Log("seq", "shutdown at step %d", m.steps)
	m.stop()
}

func (m *Manager) clock() <-chan time.Time {
	if m.ticker == nil {
		return nil
	}
	return m.ticker.C
}

func (m *Manager) startClock() {
	if m.opts.ManualClock {
		return
	}
	if m.ticker == nil {
		m.ticker = time.NewTicker(m.transport.TickPeriod())
		return
	}
	m.ticker.Reset(m.transport.TickPeriod())
}

func (m *Manager) stopClock() {
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
}

// retime applies a new bpm or divisor to the running clock
func (m *Manager) retime() {
	if m.ticker != nil {
		m.ticker.Reset(m.transport.TickPeriod())
	}
	debug.Log("tempo", "bpm=%d div=%d period=%s", m.transport.BPM(), m.transport.Divisor(), m.transport.TickPeriod())
}

// Scheduling

func (m *Manager) tick() {
	if m.transport.State() != Running {
		return
	}
	m.pendingTicks++
	if m.inFlight {
		debug.LogEvery(16, "tick", "coalesced, pending=%d", m.pendingTicks)
	}
	m.dispatch()
}

// dispatch starts the worker on every pending tick up to the loop
// boundary. Loop resets need no computation and run inline.
func (m *Manager) dispatch() {
	for !m.inFlight && m.pendingTicks > 0 && m.transport.State() == Running {
		if m.transport.Loop() && m.transport.StepsUntilLoop() <= 0 {
			m.pendingTicks--
			m.loopReset()
			continue
		}

		n := m.pendingTicks
		if m.transport.Loop() {
			n = min(n, m.transport.StepsUntilLoop())
		}
		m.pendingTicks -= n
		m.inFlight = true
		m.flightGen = m.gen
		go m.compute(m.ctx, m.gen, m.grid.Life().Clone(), n)
	}
}

func (m *Manager) loopReset() {
	m.invalidate()
	m.grid.Set(m.grid.ResetToLoop())
	m.transport.Rewind()
	m.steps++
	m.emitNotes()
	m.publish()
}

// compute runs on its own goroutine with a private copy of the grid
func (m *Manager) compute(ctx context.Context, gen uint64, l life.Life, n int) {
	res := result{gen: gen, steps: n}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.life = nil
			res.err = fault.Wrap(ErrTickComputationFailed,
				fmsg.With(fmt.Sprintf("step worker panicked: %v", r)),
				ftag.With(ftag.Internal),
			)
		}
		res.took = time.Since(start)
		m.results <- res
	}()

	for range n {
		if ctx.Err() != nil {
			res.err = fault.Wrap(ErrTickComputationFailed,
				fmsg.With("step worker cancelled"),
				ftag.With(ftag.Cancelled),
			)
			return
		}
		l = m.step(l)
	}
	res.life = l
}

func (m *Manager) adopt(r result) {
	m.inFlight = false

	switch {
	case r.gen != m.gen:
		debug.Log("tick", "discarded stale result gen=%d current=%d", r.gen, m.gen)
	case r.err != nil:
		m.fail(r.err)
	default:
		m.grid.Set(r.life)
		m.transport.Advance(r.steps)
		m.steps += uint64(r.steps)
		m.lastTick = r.took
		m.lastBatch = r.steps
		if m.transport.State() == Running {
			m.emitNotes()
		}
	}

	m.mergeEdits()
	m.publish()
	m.dispatch()
}

// Edits

// edit changes one cell. While an adoptable step is in flight the change
// waits in the pending set so the adopted generation does not erase it.
func (m *Manager) edit(c life.Cell, alive bool) {
	if m.inFlight && m.flightGen == m.gen {
		m.pendingEdits[c] = alive
		return
	}
	m.setCell(c, alive)
}

func (m *Manager) setCell(c life.Cell, alive bool) {
	if alive {
		m.grid.Populate(c)
	} else {
		m.grid.Unpopulate(c)
	}
}

func (m *Manager) mergeEdits() {
	for c, alive := range m.pendingEdits {
		m.setCell(c, alive)
	}
	clear(m.pendingEdits)
}

// invalidate orphans any step in flight. Buffered edits land first so the
// operation that follows sees them.
func (m *Manager) invalidate() {
	m.mergeEdits()
	m.gen++
}

// Output

func (m *Manager) emitNotes() {
	s := m.settings
	hits := m.mask.Hits(m.grid.Life())
	m.rng.Shuffle(len(hits), func(i, j int) { hits[i], hits[j] = hits[j], hits[i] })
	if len(hits) > s.Voices {
		hits = hits[:s.Voices]
	}

	for _, c := range hits {
		if m.rng.Float64() < s.Probability {
			continue
		}
		note, _ := m.mask.Note(c)

		var pitch uint8
		if note.On {
			pitch = m.quant.FixedPitch(s.Root, s.Accidental, s.OctaveCenter, s.OctaveRange, int(note.Value))
		} else {
			pitch = m.quant.GeneratePitch(s.Root, s.Accidental, s.OctaveCenter, s.OctaveRange, s.Scale)
		}
		vel := note.Velocity
		if vel == 0 {
			vel = m.quant.GenerateVelocity(s.VelocityMin, s.VelocityMax)
		}
		m.send(m.voices.Trigger(pitch, vel, s.Channel)...)
	}
}

func (m *Manager) send(msgs ...midi.Message) {
	for _, msg := range msgs {
		p, err := m.encoder.Encode(msg)
		if err != nil {
			m.encodeErrors++
			m.fail(err)
			continue
		}
		m.outbox.Send(p)
	}
}

func (m *Manager) fail(err error) {
	m.lastErr = err
	debug.Warn("sequencer", "err", err, "kind", ftag.Get(err))
}

func (m *Manager) publish() {
	snap := m.snapshot()
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- snap:
	default:
	}
}

func (m *Manager) snapshot() Snapshot {
	return Snapshot{
		State:        m.transport.State(),
		BPM:          m.transport.BPM(),
		Divisor:      m.transport.Divisor(),
		TickPeriod:   m.transport.TickPeriod(),
		Loop:         m.transport.Loop(),
		LoopLength:   m.transport.LoopLength(),
		Counter:      m.transport.Counter(),
		Generation:   m.gen,
		Steps:        m.steps,
		Life:         m.grid.Life().Clone(),
		Mask:         m.mask.Clone(),
		Sounding:     m.voices.Sounding(),
		Settings:     m.settings,
		InFlight:     m.inFlight,
		PendingTicks: m.pendingTicks,
		LastTick:     m.lastTick,
		LastBatch:    m.lastBatch,
		Dropped:      m.outbox.Dropped(),
		EncodeErrors: m.encodeErrors,
		LastError:    m.lastErr,
	}
}
