package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cellseq/life"
	"cellseq/music"
	"cellseq/sequencer"
	"cellseq/theme"
	"cellseq/widgets"
)

// Pane decides what enter edits at the cursor
type Pane int

const (
	PaneLife Pane = iota
	PaneMask
)

func (p Pane) String() string {
	if p == PaneMask {
		return "mask"
	}
	return "life"
}

// Sender is the part of the manager the front end needs
type Sender interface {
	Do(sequencer.Action) bool
	Updates() <-chan sequencer.Snapshot
	Done() <-chan struct{}
}

type Model struct {
	Manager  Sender
	Theme    *theme.Theme
	Port     string
	Density  float64
	snap     sequencer.Snapshot
	board    widgets.Board
	pane     Pane
	showHelp bool
	quitting bool
}

type SnapshotMsg sequencer.Snapshot

type doneMsg struct{}

func NewModel(manager Sender, th *theme.Theme, port string, density float64) Model {
	m := Model{
		Manager: manager,
		Theme:   th,
		Port:    port,
		Density: density,
		board:   widgets.Board{Rows: 24, Cols: 48, ShowCursor: true},
	}
	m.board.Center(life.Cell{})
	return m
}

func ListenForUpdates(manager Sender) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-manager.Updates():
			return SnapshotMsg(s)
		case <-manager.Done():
			return doneMsg{}
		}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Manager)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			m.Manager.Do(sequencer.Simple(sequencer.ActionQuit))
			return m, tea.Quit

		case "h", "left":
			m.moveCursor(0, -1)
		case "l", "right":
			m.moveCursor(0, 1)
		case "k", "up":
			m.moveCursor(-1, 0)
		case "j", "down":
			m.moveCursor(1, 0)
		case "H", "J", "K", "L":
			m.moveCursor(bigStep(key))
		case "0":
			m.board.Cursor = life.Cell{}
			m.board.Center(m.board.Cursor)

		case "tab":
			m.pane = 1 - m.pane
		case "?":
			m.showHelp = !m.showHelp

		case "enter":
			m.Manager.Do(m.toggleAtCursor())
		case "r":
			m.Manager.Do(sequencer.Randomize(m.Density))

		default:
			if a, ok := m.actionFor(key); ok {
				m.Manager.Do(a)
			}
		}

	case tea.WindowSizeMsg:
		m.board.Rows = max(msg.Height-10, 4)
		m.board.Cols = max(msg.Width-2, 8)
		m.board.Follow()

	case SnapshotMsg:
		m.snap = sequencer.Snapshot(msg)
		return m, ListenForUpdates(m.Manager)

	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func bigStep(key string) (di, dj int) {
	switch key {
	case "H":
		return 0, -8
	case "L":
		return 0, 8
	case "K":
		return -8, 0
	}
	return 8, 0
}

func (m *Model) moveCursor(di, dj int) {
	m.board.Cursor.I += di
	m.board.Cursor.J += dj
	m.board.Follow()
}

func (m Model) toggleAtCursor() sequencer.Action {
	c := m.board.Cursor
	if m.pane == PaneMask {
		if m.snap.Mask.Contains(c) {
			return sequencer.Uncheck(c)
		}
		return sequencer.Check(c)
	}
	if m.snap.Life.Contains(c) {
		return sequencer.Unpopulate(c)
	}
	return sequencer.Populate(c)
}

// actionFor maps the remaining keys against the latest snapshot
func (m Model) actionFor(key string) (sequencer.Action, bool) {
	s := m.snap
	set := s.Settings
	switch key {
	case " ":
		return sequencer.Simple(sequencer.ActionTogglePlayback), true
	case "p":
		return sequencer.Simple(sequencer.ActionPause), true
	case "x":
		return sequencer.Simple(sequencer.ActionStop), true
	case "+", "=":
		return sequencer.WithValue(sequencer.ActionFaster, 5), true
	case "-", "_":
		return sequencer.WithValue(sequencer.ActionSlower, 5), true
	case "]":
		return sequencer.WithValue(sequencer.ActionSetDivisor, s.Divisor+1), true
	case "[":
		return sequencer.WithValue(sequencer.ActionSetDivisor, s.Divisor-1), true

	case "s":
		return sequencer.SetScale(set.Scale.Next()), true
	case "n":
		return sequencer.SetRoot(set.Root.Next()), true
	case "a":
		return sequencer.SetAccidental(set.Accidental.Next()), true
	case ".":
		return sequencer.WithValue(sequencer.ActionSetOctaveCenter, set.OctaveCenter+1), true
	case ",":
		return sequencer.WithValue(sequencer.ActionSetOctaveCenter, set.OctaveCenter-1), true
	case ">":
		return sequencer.WithValue(sequencer.ActionSetOctaveRange, set.OctaveRange+1), true
	case "<":
		return sequencer.WithValue(sequencer.ActionSetOctaveRange, set.OctaveRange-1), true
	case "v":
		return sequencer.WithValue(sequencer.ActionSetVoices, set.Voices-1), true
	case "V":
		return sequencer.WithValue(sequencer.ActionSetVoices, set.Voices+1), true
	case "m":
		return sequencer.WithValue(sequencer.ActionSetChannel, (int(set.Channel)+1)%16), true
	case "M":
		return sequencer.WithValue(sequencer.ActionSetChannel, (int(set.Channel)+15)%16), true
	case "e":
		return sequencer.WithValue(sequencer.ActionSetVelocityMin, max(int(set.VelocityMin)-8, 0)), true
	case "E":
		return sequencer.WithValue(sequencer.ActionSetVelocityMin, min(int(set.VelocityMin)+8, 127)), true
	case "t":
		return sequencer.WithValue(sequencer.ActionSetVelocityMax, max(int(set.VelocityMax)-8, 0)), true
	case "T":
		return sequencer.WithValue(sequencer.ActionSetVelocityMax, min(int(set.VelocityMax)+8, 127)), true
	case "y":
		return sequencer.SetProbability(max(set.Probability-0.1, 0)), true
	case "Y":
		return sequencer.SetProbability(min(set.Probability+0.1, 1)), true

	case "c":
		return sequencer.Simple(sequencer.ActionClear), true
	case "C":
		return sequencer.Simple(sequencer.ActionClearMask), true
	case "w":
		return sequencer.Simple(sequencer.ActionSave), true
	case "R":
		return sequencer.Simple(sequencer.ActionReset), true
	case "o":
		return sequencer.Simple(sequencer.ActionToggleLoop), true
	case "O":
		return sequencer.Simple(sequencer.ActionSetLoopPoint), true
	case "}":
		return sequencer.WithValue(sequencer.ActionSetLoopLength, s.LoopLength+1), true
	case "{":
		return sequencer.WithValue(sequencer.ActionSetLoopLength, s.LoopLength-1), true
	case "!":
		return sequencer.Simple(sequencer.ActionTick), true
	}
	return sequencer.Action{}, false
}

var keyHelp = []widgets.KeySection{
	{Title: "Transport", Keys: []widgets.KeyBinding{
		{"space", "play / stop"}, {"p", "pause"}, {"x", "stop"},
		{"+/-", "tempo"}, {"[/]", "divisor"}, {"!", "single tick"},
	}},
	{Title: "Board", Keys: []widgets.KeyBinding{
		{"hjkl", "move (HJKL x8)"}, {"tab", "edit life / mask"}, {"enter", "toggle cell"},
		{"r", "randomize"}, {"c / C", "clear life / mask"}, {"w / R", "save / reset seed"},
		{"o / O", "loop / loop point"}, {"{ }", "loop length"},
	}},
	{Title: "Notes", Keys: []widgets.KeyBinding{
		{"s n a", "scale root accidental"}, {", . < >", "octave center / range"},
		{"v V", "voices"}, {"m M", "channel"}, {"e E t T", "velocity min / max"},
		{"y Y", "skip probability"},
	}},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.snap
	set := s.Settings

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	loop := fmt.Sprintf("loop:%d", s.LoopLength)
	if s.Loop {
		loop = fmt.Sprintf("loop:%d/%d", s.Counter, s.LoopLength)
	}
	port := m.Port
	if port == "" {
		port = "no port"
	}

	header := headerStyle.Render(fmt.Sprintf("cellseq  %-7s %3dbpm /%d  %s  %s  gen:%d",
		strings.ToUpper(s.State.String()), s.BPM, s.Divisor, s.TickPeriod.Round(time.Millisecond), loop, s.Steps))

	status := dimStyle.Render(fmt.Sprintf("%s %s  oct:%d±%d  vel:%d-%d  ch:%d  voices:%d/%d  skip:%.0f%%  edit:%s  %s",
		music.KeyName(set.Root, set.Accidental), set.Scale, set.OctaveCenter, set.OctaveRange,
		set.VelocityMin, set.VelocityMax, set.Channel+1, len(s.Sounding), set.Voices,
		set.Probability*100, m.pane, port))

	stats := dimStyle.Render(fmt.Sprintf("cells:%d  mask:%d  hits:%d  notes:%s  tick:%s x%d  dropped:%d",
		s.Life.Len(), s.Mask.Len(), len(s.Hits()), widgets.RenderNotes(s.Sounding),
		s.LastTick.Round(time.Microsecond), s.LastBatch, s.Dropped))

	board := widgets.RenderBoard(m.board, s.Life, s.Mask, m.Theme)

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(status)
	out.WriteString("\n")
	out.WriteString(stats)
	out.WriteString("\n\n")
	out.WriteString(board)
	out.WriteString("\n\n")

	if s.LastError != nil {
		out.WriteString(warnStyle.Render(fmt.Sprintf("error: %v (encode errors: %d)", s.LastError, s.EncodeErrors)))
		out.WriteString("\n")
	}
	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))
	} else {
		out.WriteString(dimStyle.Render("space:play  hjkl:move  enter:toggle  tab:life/mask  r:random  ?:help  q:quit"))
	}

	return out.String()
}
