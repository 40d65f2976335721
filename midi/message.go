package midi

import "fmt"

// Type is the status byte of a message, without the channel nibble
type Type uint8

// MIDI message types
const (
	NoteOff  Type = 0x80
	NoteOn   Type = 0x90
	CC       Type = 0xB0
	Clock    Type = 0xF8
	Start    Type = 0xFA
	Continue Type = 0xFB
	Stop     Type = 0xFC
)

// Message is a channel or real-time message before encoding.
// For CC, Note holds the controller number and Velocity the value.
// Out-of-range fields are allowed here; Encode rejects them.
type Message struct {
	Type     Type
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Packet is one encoded message (1-3 bytes)
type Packet []byte

func On(channel, note, velocity uint8) Message {
	return Message{Type: NoteOn, Channel: channel, Note: note, Velocity: velocity}
}

func Off(channel, note, velocity uint8) Message {
	return Message{Type: NoteOff, Channel: channel, Note: note, Velocity: velocity}
}

func Control(channel, controller, value uint8) Message {
	return Message{Type: CC, Channel: channel, Note: controller, Velocity: value}
}

// Realtime builds one of the single-byte transport messages
func Realtime(t Type) Message {
	return Message{Type: t}
}

// IsRealtime reports whether t is a single-byte transport message
func (t Type) IsRealtime() bool {
	switch t {
	case Clock, Start, Continue, Stop:
		return true
	}
	return false
}

func (m Message) String() string {
	switch m.Type {
	case NoteOn:
		return fmt.Sprintf("note on ch=%d pitch=%d vel=%d", m.Channel, m.Note, m.Velocity)
	case NoteOff:
		return fmt.Sprintf("note off ch=%d pitch=%d vel=%d", m.Channel, m.Note, m.Velocity)
	case CC:
		return fmt.Sprintf("control change ch=%d ctrl=%d value=%d", m.Channel, m.Note, m.Velocity)
	case Clock:
		return "timing clock"
	case Start:
		return "start song"
	case Continue:
		return "continue song"
	case Stop:
		return "stop song"
	}
	return fmt.Sprintf("unknown(0x%02X)", uint8(m.Type))
}
