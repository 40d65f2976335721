package midi

import (
	"errors"
	"fmt"
)

// Control change status bytes. Earlier cellseq builds sent 0xD0 (the
// channel pressure nibble) for control changes; LegacyControlStatus keeps
// that available for rigs mapped around it.
const (
	StandardControlStatus byte = 0xB0
	LegacyControlStatus   byte = 0xD0
)

const dataMask = 0x7F

var (
	ErrValueOverflow   = errors.New("value greater than 127")
	ErrChannelOverflow = errors.New("channel not within 0-15")
	ErrUnknownType     = errors.New("unknown message type")
)

// EncodeError carries the message that could not be encoded
type EncodeError struct {
	Message Message
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Message, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Encoder maps messages to wire bytes. The zero value, and the package-level
// Encode, send control changes with the standard 0xB0 status. Set
// ControlStatus to LegacyControlStatus (config: legacy_cc_status) to get
// the 0xD0 byte instead.
type Encoder struct {
	ControlStatus byte
}

// Encode uses the standard encoder
func Encode(m Message) (Packet, error) {
	return Encoder{}.Encode(m)
}

// Encode returns the bytes for m. Data bytes above 127 fail with
// ErrValueOverflow and channels above 15 with ErrChannelOverflow; nothing
// is clamped.
func (e Encoder) Encode(m Message) (Packet, error) {
	switch m.Type {
	case NoteOn, NoteOff, CC:
		if m.Note > dataMask || m.Velocity > dataMask {
			return nil, &EncodeError{Message: m, Err: ErrValueOverflow}
		}
		if m.Channel > 15 {
			return nil, &EncodeError{Message: m, Err: ErrChannelOverflow}
		}
		status := byte(m.Type)
		if m.Type == CC {
			status = e.controlStatus()
		}
		return Packet{status | m.Channel, m.Note & dataMask, m.Velocity & dataMask}, nil
	case Clock, Start, Continue, Stop:
		return Packet{byte(m.Type)}, nil
	}
	return nil, &EncodeError{Message: m, Err: ErrUnknownType}
}

// EncodeAll encodes msgs in order, stopping at the first failure
func (e Encoder) EncodeAll(msgs []Message) ([]Packet, error) {
	out := make([]Packet, 0, len(msgs))
	for _, m := range msgs {
		p, err := e.Encode(m)
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (e Encoder) controlStatus() byte {
	if e.ControlStatus == 0 {
		return StandardControlStatus
	}
	return e.ControlStatus & 0xF0
}
