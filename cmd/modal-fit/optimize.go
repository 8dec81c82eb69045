package main

import (
	"fmt"
	"math"

	"github.com/cwbudde/mayfly"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-modal/analysis"
	"github.com/cwbudde/algo-modal/internal/config"
	"github.com/cwbudde/algo-modal/internal/engine"
	"github.com/cwbudde/algo-modal/internal/logger"
	"github.com/cwbudde/algo-modal/internal/wavio"
	"github.com/cwbudde/algo-modal/modelfile"
)

const (
	minFreqScale  = 0.1
	maxFreqScale  = 100
	maxDecayScale = 10
	hintFFTSize   = 1 << 15
)

type candidate struct {
	freq    float32
	decay   float32
	metrics analysis.Metrics
	samples []float32
}

type fitter struct {
	cfg   *config.Config
	model *modelfile.File
	ref   []float64
	evals int
	best  candidate
}

func newFitter(cfg *config.Config, model *modelfile.File, ref []float64) *fitter {
	return &fitter{
		cfg:   cfg,
		model: model,
		ref:   ref,
		best:  candidate{metrics: analysis.Metrics{Score: math.Inf(1)}},
	}
}

func (f *fitter) render(freq float32, decay float32) ([]float32, error) {
	e, err := engine.New(f.cfg, f.model, nil)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	if err := e.SetScales(freq, decay); err != nil {
		return nil, err
	}
	return e.RenderOffline(f.cfg.Audio.Duration, f.cfg.Audio.BlockSize)
}

func (f *fitter) evaluate(freq float32, decay float32) float64 {
	f.evals++
	out, err := f.render(freq, decay)
	if err != nil {
		logger.Warn("render failed", zap.Error(err))
		return 2
	}
	m := analysis.Compare(f.ref, wavio.Channel(out, 1, 0), f.cfg.Audio.SampleRate)
	if m.Score < f.best.metrics.Score {
		f.best = candidate{freq: freq, decay: decay, metrics: m, samples: out}
		logger.Info("improved",
			zap.Int("eval", f.evals),
			zap.Float32("freq_scale", freq),
			zap.Float32("decay_scale", decay),
			zap.Float64("score", m.Score),
		)
	}
	return m.Score
}

// pitchHint is the frequency scale that moves the model's loudest partial
// onto the reference's loudest partial. It is 1 when either has no peak.
func (f *fitter) pitchHint() float64 {
	refHz, err := analysis.PeakFrequency(f.ref, f.cfg.Audio.SampleRate, hintFFTSize)
	if err != nil {
		return 1
	}
	out, err := f.render(1, 1)
	if err != nil {
		return 1
	}
	candHz, err := analysis.PeakFrequency(wavio.Channel(out, 1, 0), f.cfg.Audio.SampleRate, hintFFTSize)
	if err != nil || candHz <= 0 {
		return 1
	}
	return clamp(refHz/candHz, minFreqScale, maxFreqScale)
}

type bounds struct {
	freqLo, freqHi   float64
	decayLo, decayHi float64
}

func scaleBounds(hint float64) bounds {
	return bounds{
		freqLo:  clamp(hint/1.5, minFreqScale, maxFreqScale),
		freqHi:  clamp(hint*1.5, minFreqScale, maxFreqScale),
		decayLo: 0.1,
		decayHi: maxDecayScale,
	}
}

// denormalize maps a point of the unit square to log-spaced scales.
func (b bounds) denormalize(pos []float64) (float32, float32) {
	x, y := 0.5, 0.5
	if len(pos) > 0 {
		x = clamp(pos[0], 0, 1)
	}
	if len(pos) > 1 {
		y = clamp(pos[1], 0, 1)
	}
	freq := b.freqLo * math.Pow(b.freqHi/b.freqLo, x)
	decay := b.decayLo * math.Pow(b.decayHi/b.decayLo, y)
	return float32(freq), float32(decay)
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported mayfly variant %q", variant)
	}
	pop = max(pop, 2)
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = max(iters, 1)
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
