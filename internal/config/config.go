// Package config loads the settings shared by the modal command line tools.
package config

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-modal/modal"
)

// Config holds all tool settings.
type Config struct {
	Audio    AudioConfig    `yaml:"audio"`
	Synth    SynthConfig    `yaml:"synth"`
	Model    ModelConfig    `yaml:"model"`
	Strike   StrikeConfig   `yaml:"strike"`
	Friction FrictionConfig `yaml:"friction"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AudioConfig describes the render stream.
type AudioConfig struct {
	SampleRate int     `yaml:"sample_rate"`
	BlockSize  int     `yaml:"block_size"`
	Channels   int     `yaml:"channels"`
	Duration   float64 `yaml:"duration"` // seconds rendered by offline tools
}

// SynthConfig holds the filter parameters.
type SynthConfig struct {
	Instance      int     `yaml:"instance"`
	GainDB        float32 `yaml:"gain_db"`
	FreqScale     float32 `yaml:"freq_scale"`
	DecayScale    float32 `yaml:"decay_scale"`
	ModeGainScale float32 `yaml:"mode_gain_scale"`
}

// ModelConfig selects the modal model. An empty Path uses the built-in plate.
type ModelConfig struct {
	Path        string  `yaml:"path"`
	PlateNX     int     `yaml:"plate_nx"`
	PlateNY     int     `yaml:"plate_ny"`
	Fundamental float64 `yaml:"fundamental"`
}

// FrictionConfig selects a looped rubbing sound that excites the model next
// to the strikes. An empty loop path disables it.
type FrictionConfig struct {
	Loop    string  `yaml:"loop"`     // WAV file, resampled to audio.sample_rate
	FreqPct float32 `yaml:"freq_pct"` // playback rate relative to the recording
	LevelDB float32 `yaml:"level_db"`
}

// StrikeConfig describes where and how hard the object is hit.
type StrikeConfig struct {
	Points   [][3]float32  `yaml:"points"`
	Volume   float32       `yaml:"volume"`
	Interval time.Duration `yaml:"interval"`
	Seed     uint32        `yaml:"seed"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate: 48000,
			BlockSize:  512,
			Channels:   1,
			Duration:   3,
		},
		Synth: SynthConfig{
			GainDB:        0,
			FreqScale:     1,
			DecayScale:    1,
			ModeGainScale: 1,
		},
		Model: ModelConfig{
			PlateNX:     8,
			PlateNY:     6,
			Fundamental: 180,
		},
		Strike: StrikeConfig{
			Points:   [][3]float32{{0.13, 0.11, 0}},
			Volume:   1,
			Interval: 1500 * time.Millisecond,
			Seed:     1,
		},
		Friction: FrictionConfig{
			FreqPct: 1,
			LevelDB: -12,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be > 0, got %d", c.Audio.SampleRate)
	}
	if c.Audio.BlockSize <= 0 {
		return fmt.Errorf("audio.block_size must be > 0, got %d", c.Audio.BlockSize)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > modal.MaxChannels {
		return fmt.Errorf("audio.channels must be in [1,%d], got %d", modal.MaxChannels, c.Audio.Channels)
	}
	if c.Audio.Duration <= 0 {
		return fmt.Errorf("audio.duration must be > 0, got %f", c.Audio.Duration)
	}
	if c.Synth.Instance < 0 || c.Synth.Instance >= modal.MaxInstances {
		return fmt.Errorf("synth.instance must be in [0,%d], got %d", modal.MaxInstances-1, c.Synth.Instance)
	}
	if c.Synth.FreqScale <= 0 || c.Synth.DecayScale <= 0 || c.Synth.ModeGainScale <= 0 {
		return fmt.Errorf("synth scales must be > 0")
	}
	if len(c.Strike.Points) == 0 {
		return fmt.Errorf("strike.points must not be empty")
	}
	if c.Strike.Volume < 0 {
		return fmt.Errorf("strike.volume must be >= 0, got %f", c.Strike.Volume)
	}
	if c.Friction.Loop != "" && c.Friction.FreqPct <= 0 {
		return fmt.Errorf("friction.freq_pct must be > 0, got %f", c.Friction.FreqPct)
	}
	return nil
}
