package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cellseq/midi"
	"cellseq/music"
	"cellseq/sequencer"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gopkg.in/yaml.v3"
)

// OutputConfig selects the MIDI port and how messages are written to it
type OutputConfig struct {
	PortName       string `json:"portName,omitempty" yaml:"port_name,omitempty"`
	SendTransport  bool   `json:"sendTransport,omitempty" yaml:"send_transport,omitempty"`
	LegacyCCStatus bool   `json:"legacyCCStatus,omitempty" yaml:"legacy_cc_status,omitempty"`
	QueueSize      int    `json:"queueSize,omitempty" yaml:"queue_size,omitempty"`
}

// MusicConfig is how hits become notes
type MusicConfig struct {
	Channel      int     `json:"channel" yaml:"channel"`
	VelocityMin  int     `json:"velocityMin" yaml:"velocity_min"`
	VelocityMax  int     `json:"velocityMax" yaml:"velocity_max"`
	OctaveCenter int     `json:"octaveCenter" yaml:"octave_center"`
	OctaveRange  int     `json:"octaveRange" yaml:"octave_range"`
	Scale        string  `json:"scale" yaml:"scale"`
	Root         string  `json:"root" yaml:"root"`
	Accidental   string  `json:"accidental" yaml:"accidental"`
	Voices       int     `json:"voices" yaml:"voices"`
	Probability  float64 `json:"probability" yaml:"probability"`
}

// TransportConfig is the tempo and loop setup at startup
type TransportConfig struct {
	BPM        int `json:"bpm" yaml:"bpm"`
	Divisor    int `json:"divisor" yaml:"divisor"`
	LoopLength int `json:"loopLength" yaml:"loop_length"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string  `json:"palette,omitempty" yaml:"palette,omitempty"`
	Density float64 `json:"density,omitempty" yaml:"density,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Output    OutputConfig    `json:"output" yaml:"output"`
	Music     MusicConfig     `json:"music" yaml:"music"`
	Transport TransportConfig `json:"transport" yaml:"transport"`
	UI        UIConfig        `json:"ui,omitempty" yaml:"ui,omitempty"`
	LogLevel  string          `json:"logLevel,omitempty" yaml:"log_level,omitempty"`
}

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid config")

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	s := sequencer.DefaultSettings()
	return &Config{
		Output: OutputConfig{
			QueueSize: midi.DefaultOutboxSize,
		},
		Music: MusicConfig{
			Channel:      int(s.Channel),
			VelocityMin:  int(s.VelocityMin),
			VelocityMax:  int(s.VelocityMax),
			OctaveCenter: s.OctaveCenter,
			OctaveRange:  s.OctaveRange,
			Scale:        s.Scale.String(),
			Root:         s.Root.String(),
			Accidental:   s.Accidental.String(),
			Voices:       s.Voices,
			Probability:  s.Probability,
		},
		Transport: TransportConfig{
			BPM:        sequencer.DefaultBPM,
			Divisor:    sequencer.DefaultDivisor,
			LoopLength: sequencer.DefaultLoopLength,
		},
		UI: UIConfig{
			Density: 0.3,
		},
		LogLevel: "debug",
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cellseq"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the default config file, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path as YAML (.yaml, .yml) or JSON. A missing file gives
// the defaults; fields absent from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("parse config", "Could not parse "+path),
			ftag.With(ftag.InvalidArgument),
		)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path in the format its extension names
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create config dir"))
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode config"))
	}

	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func invalid(err error, msg string) error {
	return fault.Wrap(errors.Join(ErrInvalid, err),
		fmsg.WithDesc(msg, msg),
		ftag.With(ftag.InvalidArgument),
	)
}

// Validate checks names and ranges
func (c *Config) Validate() error {
	if _, err := c.Settings(); err != nil {
		return err
	}
	if c.Transport.BPM < 1 || c.Transport.BPM > sequencer.MaxBPM {
		return invalid(errors.New("bpm out of range"), fmt.Sprintf("transport bpm must be within 1..%d", sequencer.MaxBPM))
	}
	if c.Transport.Divisor < 1 || c.Transport.Divisor > sequencer.MaxDivisor {
		return invalid(errors.New("divisor out of range"), fmt.Sprintf("transport divisor must be within 1..%d", sequencer.MaxDivisor))
	}
	if c.Transport.LoopLength < 1 {
		return invalid(errors.New("loop length below 1"), "loop length must be at least 1")
	}
	if c.UI.Density < 0 || c.UI.Density > 1 {
		return invalid(errors.New("density not within 0..1"), "ui density must be within 0..1")
	}
	return nil
}

// Settings converts the music section
func (c *Config) Settings() (sequencer.Settings, error) {
	m := c.Music
	scale, err := music.ParseScale(m.Scale)
	if err != nil {
		return sequencer.Settings{}, invalid(err, "unknown scale "+m.Scale)
	}
	root, err := music.ParseRoot(m.Root)
	if err != nil {
		return sequencer.Settings{}, invalid(err, "unknown root "+m.Root)
	}
	acc, err := music.ParseAccidental(m.Accidental)
	if err != nil {
		return sequencer.Settings{}, invalid(err, "unknown accidental "+m.Accidental)
	}
	if m.Channel < 0 || m.Channel > 15 || m.VelocityMin < 0 || m.VelocityMin > 127 ||
		m.VelocityMax < 0 || m.VelocityMax > 127 {
		return sequencer.Settings{}, invalid(errors.New("channel or velocity out of range"), "channel must be 0-15 and velocities 0-127")
	}

	s := sequencer.Settings{
		Channel:      uint8(m.Channel),
		VelocityMin:  uint8(m.VelocityMin),
		VelocityMax:  uint8(m.VelocityMax),
		OctaveCenter: m.OctaveCenter,
		OctaveRange:  m.OctaveRange,
		Scale:        scale,
		Root:         root,
		Accidental:   acc,
		Voices:       m.Voices,
		Probability:  m.Probability,
	}
	if err := s.Validate(); err != nil {
		return sequencer.Settings{}, invalid(err, "music settings out of range")
	}
	return s, nil
}

// Options builds the sequencer options; the caller adds grid, mask and outbox
func (c *Config) Options() (sequencer.Options, error) {
	s, err := c.Settings()
	if err != nil {
		return sequencer.Options{}, err
	}
	opts := sequencer.Options{
		Settings:      s,
		BPM:           c.Transport.BPM,
		Divisor:       c.Transport.Divisor,
		LoopLength:    c.Transport.LoopLength,
		SendTransport: c.Output.SendTransport,
	}
	if c.Output.LegacyCCStatus {
		opts.Encoder = midi.Encoder{ControlStatus: midi.LegacyControlStatus}
	}
	return opts, nil
}
