package widgets

import (
	"fmt"
	"strings"

	"cellseq/life"
	"cellseq/mask"
	"cellseq/theme"

	"github.com/charmbracelet/lipgloss"
)

// Board is a window onto the unbounded plane
type Board struct {
	Top, Left  int
	Rows, Cols int
	Cursor     life.Cell
	ShowCursor bool
}

// Follow scrolls the window so the cursor stays inside it
func (b *Board) Follow() {
	if b.Cursor.I < b.Top {
		b.Top = b.Cursor.I
	}
	if b.Cursor.I >= b.Top+b.Rows {
		b.Top = b.Cursor.I - b.Rows + 1
	}
	if b.Cursor.J < b.Left {
		b.Left = b.Cursor.J
	}
	if b.Cursor.J >= b.Left+b.Cols {
		b.Left = b.Cursor.J - b.Cols + 1
	}
}

// Center puts c in the middle of the window
func (b *Board) Center(c life.Cell) {
	b.Top = c.I - b.Rows/2
	b.Left = c.J - b.Cols/2
}

// Glyph picks the symbol for one cell
func Glyph(s theme.Symbols, alive, masked, cursor bool) rune {
	switch {
	case alive && masked:
		if cursor {
			return s.CursorHit
		}
		return s.Hit
	case alive:
		if cursor {
			return s.CursorAlive
		}
		return s.Alive
	case masked:
		if cursor {
			return s.CursorMasked
		}
		return s.Masked
	}
	if cursor {
		return s.CursorEmpty
	}
	return s.Empty
}

// RenderBoard draws the window: live cells, masked cells and hits
func RenderBoard(b Board, l life.Life, m mask.Mask, th *theme.Theme) string {
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	alive := lipgloss.NewStyle().Foreground(th.FG())
	masked := lipgloss.NewStyle().Foreground(th.Accent())
	hit := lipgloss.NewStyle().Foreground(th.Success()).Bold(true)
	cursor := lipgloss.NewStyle().Foreground(th.Cursor())

	lines := make([]string, 0, b.Rows)
	for i := b.Top; i < b.Top+b.Rows; i++ {
		var line strings.Builder
		for j := b.Left; j < b.Left+b.Cols; j++ {
			c := life.Cell{I: i, J: j}
			isAlive, isMasked := l.Contains(c), m.Contains(c)
			onCursor := b.ShowCursor && c == b.Cursor

			style := dim
			switch {
			case onCursor:
				style = cursor
			case isAlive && isMasked:
				style = hit
			case isAlive:
				style = alive
			case isMasked:
				style = masked
			}
			line.WriteString(style.Render(string(Glyph(th.Symbols, isAlive, isMasked, onCursor))))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// NoteName converts a MIDI note to a readable name (e.g., "C4", "F#3")
func NoteName(note uint8) string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note)/12 - 1
	return fmt.Sprintf("%s%d", names[note%12], octave)
}

// RenderNotes lists sounding notes oldest first
func RenderNotes(notes []uint8) string {
	if len(notes) == 0 {
		return "-"
	}
	names := make([]string, len(notes))
	for i, n := range notes {
		names[i] = NoteName(n)
	}
	return strings.Join(names, " ")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
