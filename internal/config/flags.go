package config

import "flag"

// Flags holds command line overrides. Zero values leave the loaded value alone.
type Flags struct {
	Config     *string
	Debug      *bool
	SampleRate *int
	Duration   *float64
	Instance   *int
	GainDB     *float64
	Model      *string
	Volume     *float64
	Friction   *string
	LogFile    *string
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:     fs.String("config", "", "Path to YAML config file"),
		Debug:      fs.Bool("debug", false, "Enable debug logging"),
		SampleRate: fs.Int("sample-rate", 0, "Sample rate in Hz"),
		Duration:   fs.Float64("duration", 0, "Render duration in seconds"),
		Instance:   fs.Int("instance", -1, "Filter instance index"),
		GainDB:     fs.Float64("gain", 0, "Output gain in dB (0 keeps config)"),
		Model:      fs.String("model", "", "Path to model JSON (empty uses the built-in plate)"),
		Volume:     fs.Float64("volume", 0, "Strike volume"),
		Friction:   fs.String("friction-loop", "", "WAV loop that rubs the model (empty disables friction)"),
		LogFile:    fs.String("log-file", "", "Rotating log file path"),
	}
}

func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if *f.SampleRate > 0 {
		cfg.Audio.SampleRate = *f.SampleRate
	}
	if *f.Duration > 0 {
		cfg.Audio.Duration = *f.Duration
	}
	if *f.Instance >= 0 {
		cfg.Synth.Instance = *f.Instance
	}
	if *f.GainDB != 0 {
		cfg.Synth.GainDB = float32(*f.GainDB)
	}
	if *f.Model != "" {
		cfg.Model.Path = *f.Model
	}
	if *f.Volume > 0 {
		cfg.Strike.Volume = float32(*f.Volume)
	}
	if *f.Friction != "" {
		cfg.Friction.Loop = *f.Friction
	}
	if *f.LogFile != "" {
		cfg.Logging.LogFile = *f.LogFile
	}
}
