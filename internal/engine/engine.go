// Package engine wires a configured model, contact geometry and the impact and
// friction forces into a plugin.ModalFilter for the command line tools.
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-modal/force"
	"github.com/cwbudde/algo-modal/internal/config"
	"github.com/cwbudde/algo-modal/internal/wavio"
	"github.com/cwbudde/algo-modal/mesh"
	"github.com/cwbudde/algo-modal/modelfile"
	"github.com/cwbudde/algo-modal/plugin"
)

var (
	// ErrNoMesh is returned for model files without contact geometry.
	ErrNoMesh = errors.New("engine: model has no contact mesh")
	// ErrNoLoop is returned by Rub when no friction loop is configured.
	ErrNoLoop = errors.New("engine: no friction loop loaded")
)

// Engine drives one filter instance. Strike and Rub may be called from a
// control goroutine while Process runs on the audio goroutine.
type Engine struct {
	filter   *plugin.ModalFilter
	force    *force.ImpactForce
	friction *force.FrictionForce
	rubPct   float32
	rubDB    float32
	instance int
	channels int
	rate     int
	volume   float32
	points   []int
	weights  []float32

	mono []float32
	rub  []float32
	in   []float32
	log  *zap.Logger
}

// LoadModel reads the configured model file, or builds the default plate
// when no path is set.
func LoadModel(cfg *config.Config) (*modelfile.File, error) {
	if cfg.Model.Path != "" {
		return modelfile.LoadJSON(cfg.Model.Path)
	}
	spec := modelfile.DefaultPlateSpec()
	if cfg.Model.PlateNX > 0 {
		spec.NX = cfg.Model.PlateNX
	}
	if cfg.Model.PlateNY > 0 {
		spec.NY = cfg.Model.PlateNY
	}
	if cfg.Model.Fundamental > 0 {
		spec.Fundamental = cfg.Model.Fundamental
	}
	f, _, err := modelfile.Plate(spec)
	return f, err
}

// loadLoop reads a friction loop and resamples it to rate. An empty path
// yields no loop.
func loadLoop(path string, rate int) ([]float32, error) {
	if path == "" {
		return nil, nil
	}
	x, sr, err := wavio.ReadMono(path)
	if err != nil {
		return nil, fmt.Errorf("friction loop: %w", err)
	}
	if x, err = wavio.Resample(x, sr, rate); err != nil {
		return nil, fmt.Errorf("friction loop: %w", err)
	}
	loop := make([]float32, len(x))
	for i, v := range x {
		loop[i] = float32(v)
	}
	return loop, nil
}

// New creates the filter, loads model into the configured instance and
// resolves the strike points against the model mesh.
func New(cfg *config.Config, model *modelfile.File, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if model.Mesh == nil {
		return nil, ErrNoMesh
	}
	contact, err := mesh.NewContactSolver(*model.Mesh)
	if err != nil {
		return nil, err
	}

	filter := plugin.NewModalFilter(plugin.WithLogger(log.Named("plugin")))
	if err := filter.Create(cfg.Audio.SampleRate); err != nil {
		return nil, err
	}
	params := []struct {
		index int
		value float32
	}{
		{plugin.ParamInstance, float32(cfg.Synth.Instance)},
		{plugin.ParamGain, cfg.Synth.GainDB},
		{plugin.ParamFreqScale, cfg.Synth.FreqScale},
		{plugin.ParamDecayScale, cfg.Synth.DecayScale},
		{plugin.ParamModeGainScale, cfg.Synth.ModeGainScale},
	}
	for _, p := range params {
		if err := filter.SetParam(p.index, p.value); err != nil {
			return nil, err
		}
	}
	if status := filter.SetModelParams(cfg.Synth.Instance, model.Modes, model.Vertices, model.Freqs, model.Decays, model.Gains); status != plugin.StatusOK {
		return nil, fmt.Errorf("load model %q: status %d", model.ID, status)
	}

	loop, err := loadLoop(cfg.Friction.Loop, cfg.Audio.SampleRate)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		filter:   filter,
		force:    force.NewImpactForce(cfg.Audio.SampleRate, uint64(cfg.Strike.Seed)),
		friction: force.NewFrictionForce(loop, cfg.Audio.SampleRate),
		rubPct:   cfg.Friction.FreqPct,
		rubDB:    cfg.Friction.LevelDB,
		instance: cfg.Synth.Instance,
		channels: cfg.Audio.Channels,
		rate:     cfg.Audio.SampleRate,
		volume:   cfg.Strike.Volume,
		log:      log,
	}
	e.points, e.weights = contact.Solve(cfg.Strike.Points)
	e.grow(cfg.Audio.BlockSize)

	log.Info("model loaded",
		zap.String("id", model.ID),
		zap.Int("modes", model.Modes),
		zap.Int("rows", model.Vertices),
		zap.Int("instance", e.instance),
		zap.Ints("contact", e.points),
		zap.Int("friction_loop", len(loop)),
	)
	return e, nil
}

// Filter returns the underlying effect.
func (e *Engine) Filter() *plugin.ModalFilter { return e.filter }

// SampleRate returns the render rate in Hz.
func (e *Engine) SampleRate() int { return e.rate }

// Channels returns the interleaved channel count of Process.
func (e *Engine) Channels() int { return e.channels }

// Strike excites the configured contact points and queues an impact force
// burst of the configured volume.
func (e *Engine) Strike() error {
	return e.StrikeWith(e.volume)
}

// StrikeWith is Strike with an explicit volume.
func (e *Engine) StrikeWith(volume float32) error {
	if status := e.filter.SetGains(e.instance, e.points, e.weights); status != plugin.StatusOK {
		return fmt.Errorf("strike instance %d: status %d", e.instance, status)
	}
	if !e.force.AddImpact(volume) {
		e.log.Warn("impact queue full, strike dropped")
	}
	return nil
}

// Rub excites the configured contact points with the friction loop at pct of
// its recorded rate and levelDB relative to full scale.
func (e *Engine) Rub(pct float32, levelDB float32) error {
	if e.friction.BaseFrequency() == 0 {
		return ErrNoLoop
	}
	if status := e.filter.SetGains(e.instance, e.points, e.weights); status != plugin.StatusOK {
		return fmt.Errorf("rub instance %d: status %d", e.instance, status)
	}
	if !e.friction.SetFrequencyPct(pct) || !e.friction.SetLevel(levelDB) {
		e.log.Warn("friction update dropped", zap.Float32("pct", pct), zap.Float32("level_db", levelDB))
	}
	return nil
}

// SetScales updates the frequency and decay scales of the active instance.
func (e *Engine) SetScales(freq float32, decay float32) error {
	if err := e.filter.SetParam(plugin.ParamFreqScale, freq); err != nil {
		return err
	}
	return e.filter.SetParam(plugin.ParamDecayScale, decay)
}

// Process renders frames interleaved frames into out, feeding the sum of the
// impact and friction forces to every channel.
func (e *Engine) Process(out []float32, frames int) {
	e.grow(frames)
	mono := e.mono[:frames]
	e.force.Process(mono)
	rub := e.rub[:frames]
	e.friction.Process(rub)
	for n, v := range rub {
		mono[n] += v
	}
	in := e.in[:frames*e.channels]
	for n, v := range mono {
		for c := 0; c < e.channels; c++ {
			in[n*e.channels+c] = v
		}
	}
	e.filter.Render(in, out, frames, e.channels, e.channels)
}

// RenderOffline strikes once, starts the friction loop when one is loaded,
// and renders the given duration in blocks.
func (e *Engine) RenderOffline(seconds float64, blockSize int) ([]float32, error) {
	total := max(int(seconds*float64(e.rate)), 1)
	blockSize = max(blockSize, 1)
	if err := e.Strike(); err != nil {
		return nil, err
	}
	if err := e.Rub(e.rubPct, e.rubDB); err != nil && !errors.Is(err, ErrNoLoop) {
		return nil, err
	}
	out := make([]float32, total*e.channels)
	for pos := 0; pos < total; pos += blockSize {
		n := min(blockSize, total-pos)
		e.Process(out[pos*e.channels:(pos+n)*e.channels], n)
	}
	return out, nil
}

// Close releases every loaded model.
func (e *Engine) Close() {
	e.filter.Release()
}

func (e *Engine) grow(frames int) {
	if cap(e.mono) < frames {
		e.mono = make([]float32, frames)
		e.rub = make([]float32, frames)
		e.in = make([]float32, frames*e.channels)
	}
}
