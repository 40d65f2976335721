package sequencer

import (
	"fmt"

	"cellseq/life"
	"cellseq/mask"
	"cellseq/music"
)

// ActionKind names one input the run loop understands
type ActionKind int

const (
	ActionTogglePlayback ActionKind = iota
	ActionStart
	ActionStop
	ActionPause
	ActionFaster
	ActionSlower
	ActionSetBPM
	ActionSetDivisor
	ActionSetScale
	ActionSetRoot
	ActionSetAccidental
	ActionSetOctaveCenter
	ActionSetOctaveRange
	ActionSetVelocityMin
	ActionSetVelocityMax
	ActionSetChannel
	ActionSetVoices
	ActionSetProbability
	ActionPopulate
	ActionUnpopulate
	ActionCheck
	ActionUncheck
	ActionSetNote
	ActionClearMask
	ActionRandomize
	ActionClear
	ActionSave
	ActionReset
	ActionToggleLoop
	ActionSetLoopLength
	ActionSetLoopPoint
	ActionTick
	ActionQuit
)

var actionNames = [...]string{
	"toggle-playback", "start", "stop", "pause", "faster", "slower",
	"set-bpm", "set-divisor", "set-scale", "set-root", "set-accidental",
	"set-octave-center", "set-octave-range", "set-velocity-min",
	"set-velocity-max", "set-channel", "set-voices", "set-probability",
	"populate", "unpopulate", "check", "uncheck", "set-note", "clear-mask",
	"randomize", "clear", "save", "reset", "toggle-loop", "set-loop-length",
	"set-loop-point", "tick", "quit",
}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(actionNames) {
		return fmt.Sprintf("action(%d)", int(k))
	}
	return actionNames[k]
}

// Action is one discrete input. Only the fields the kind uses are read.
type Action struct {
	Kind  ActionKind
	Cell  life.Cell
	Value int
	Prob  float64
	Note  mask.Note
}

func (a Action) String() string {
	switch a.Kind {
	case ActionPopulate, ActionUnpopulate, ActionCheck, ActionUncheck:
		return fmt.Sprintf("%s %v", a.Kind, a.Cell)
	case ActionSetNote:
		return fmt.Sprintf("%s %v %+v", a.Kind, a.Cell, a.Note)
	case ActionSetProbability, ActionRandomize:
		return fmt.Sprintf("%s %.2f", a.Kind, a.Prob)
	case ActionTogglePlayback, ActionStart, ActionStop, ActionPause,
		ActionClearMask, ActionClear, ActionSave, ActionReset,
		ActionToggleLoop, ActionSetLoopPoint, ActionTick, ActionQuit:
		return a.Kind.String()
	}
	return fmt.Sprintf("%s %d", a.Kind, a.Value)
}

// Simple builds an action that carries no argument
func Simple(k ActionKind) Action { return Action{Kind: k} }

// WithValue builds an action with an integer argument
func WithValue(k ActionKind, v int) Action { return Action{Kind: k, Value: v} }

func Populate(c life.Cell) Action   { return Action{Kind: ActionPopulate, Cell: c} }
func Unpopulate(c life.Cell) Action { return Action{Kind: ActionUnpopulate, Cell: c} }
func Check(c life.Cell) Action      { return Action{Kind: ActionCheck, Cell: c} }
func Uncheck(c life.Cell) Action    { return Action{Kind: ActionUncheck, Cell: c} }

func SetNote(c life.Cell, n mask.Note) Action {
	return Action{Kind: ActionSetNote, Cell: c, Note: n}
}

func Randomize(p float64) Action      { return Action{Kind: ActionRandomize, Prob: p} }
func SetProbability(p float64) Action { return Action{Kind: ActionSetProbability, Prob: p} }

func SetScale(s music.Scale) Action { return WithValue(ActionSetScale, int(s)) }
func SetRoot(r music.Root) Action   { return WithValue(ActionSetRoot, int(r)) }

func SetAccidental(a music.Accidental) Action {
	return WithValue(ActionSetAccidental, int(a))
}
