package midi

import "slices"

// Voices tracks the notes currently sounding on one output, oldest first.
// The number of sounding notes never exceeds the cap.
type Voices struct {
	cap      int
	sounding []uint8
}

func NewVoices(cap int) *Voices {
	return &Voices{cap: max(cap, 1)}
}

func (v *Voices) Cap() int {
	return v.cap
}

func (v *Voices) Len() int {
	return len(v.sounding)
}

func (v *Voices) IsSounding(pitch uint8) bool {
	return slices.Contains(v.sounding, pitch)
}

// Sounding returns a copy of the sounding notes, oldest first
func (v *Voices) Sounding() []uint8 {
	return slices.Clone(v.sounding)
}

// Trigger plays pitch. A pitch that is already sounding is released instead
// (a single NoteOff). Otherwise, at capacity the oldest note is released
// before the NoteOn.
func (v *Voices) Trigger(pitch, velocity, channel uint8) []Message {
	if i := slices.Index(v.sounding, pitch); i >= 0 {
		v.sounding = slices.Delete(v.sounding, i, i+1)
		return []Message{Off(channel, pitch, velocity)}
	}

	var out []Message
	for len(v.sounding) >= v.cap {
		out = append(out, Off(channel, v.sounding[0], velocity))
		v.sounding = slices.Delete(v.sounding, 0, 1)
	}
	v.sounding = append(v.sounding, pitch)
	return append(out, On(channel, pitch, velocity))
}

// AllOff releases every sounding note
func (v *Voices) AllOff(channel uint8) []Message {
	out := make([]Message, 0, len(v.sounding))
	for _, p := range v.sounding {
		out = append(out, Off(channel, p, 0))
	}
	v.sounding = v.sounding[:0]
	return out
}

// SetCap changes the polyphony (minimum 1), releasing the oldest notes
// that no longer fit
func (v *Voices) SetCap(cap int, channel uint8) []Message {
	v.cap = max(cap, 1)
	var out []Message
	for len(v.sounding) > v.cap {
		out = append(out, Off(channel, v.sounding[0], 0))
		v.sounding = slices.Delete(v.sounding, 0, 1)
	}
	return out
}
