package sequencer

import (
	"errors"
	"fmt"

	"cellseq/music"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Settings shape how hits become notes
type Settings struct {
	Channel      uint8
	VelocityMin  uint8
	VelocityMax  uint8
	OctaveCenter int
	OctaveRange  int
	Scale        music.Scale
	Root         music.Root
	Accidental   music.Accidental
	Voices       int
	// Probability that a hit is skipped
	Probability float64
}

// DefaultSettings matches the stock instrument setup
func DefaultSettings() Settings {
	return Settings{
		Channel:      0,
		VelocityMin:  64,
		VelocityMax:  127,
		OctaveCenter: 5,
		OctaveRange:  1,
		Scale:        music.Chromatic,
		Root:         music.C,
		Accidental:   music.Natural,
		Voices:       6,
		Probability:  0.5,
	}
}

// ErrInvalidSetting is wrapped by every rejected setting
var ErrInvalidSetting = errors.New("invalid setting")

func invalid(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fault.Wrap(ErrInvalidSetting,
		fmsg.WithDesc(msg, msg),
		ftag.With(ftag.InvalidArgument),
	)
}

// Validate reports the first field out of range
func (s Settings) Validate() error {
	switch {
	case s.Channel > 15:
		return invalid("channel %d not within 0-15", s.Channel)
	case s.VelocityMin > 127:
		return invalid("velocity min %d above 127", s.VelocityMin)
	case s.VelocityMax > 127:
		return invalid("velocity max %d above 127", s.VelocityMax)
	case s.OctaveCenter < -1 || s.OctaveCenter > 10:
		return invalid("octave center %d not within -1..10", s.OctaveCenter)
	case s.OctaveRange < 0 || s.OctaveRange > 10:
		return invalid("octave range %d not within 0..10", s.OctaveRange)
	case !s.Scale.Valid():
		return invalid("unknown scale %d", int(s.Scale))
	case !s.Root.Valid():
		return invalid("unknown root %d", int(s.Root))
	case !s.Accidental.Valid():
		return invalid("unknown accidental %d", int(s.Accidental))
	case s.Voices < 1 || s.Voices > 128:
		return invalid("voices %d not within 1..128", s.Voices)
	case s.Probability < 0 || s.Probability > 1:
		return invalid("probability %.2f not within 0..1", s.Probability)
	}
	return nil
}

// apply runs one setting action against s. The voice cap and channel are
// validated here and applied to the voice manager by the caller.
func (s *Settings) apply(a Action) error {
	next := *s
	switch a.Kind {
	case ActionSetScale:
		next.Scale = music.Scale(a.Value)
	case ActionSetRoot:
		next.Root = music.Root(a.Value)
	case ActionSetAccidental:
		next.Accidental = music.Accidental(a.Value)
	case ActionSetOctaveCenter:
		next.OctaveCenter = a.Value
	case ActionSetOctaveRange:
		next.OctaveRange = a.Value
	case ActionSetVelocityMin:
		if a.Value < 0 || a.Value > 127 {
			return invalid("velocity min %d not within 0-127", a.Value)
		}
		next.VelocityMin = uint8(a.Value)
	case ActionSetVelocityMax:
		if a.Value < 0 || a.Value > 127 {
			return invalid("velocity max %d not within 0-127", a.Value)
		}
		next.VelocityMax = uint8(a.Value)
	case ActionSetChannel:
		if a.Value < 0 || a.Value > 15 {
			return invalid("channel %d not within 0-15", a.Value)
		}
		next.Channel = uint8(a.Value)
	case ActionSetVoices:
		next.Voices = a.Value
	case ActionSetProbability:
		next.Probability = a.Prob
	default:
		return invalid("%s is not a setting", a.Kind)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}
