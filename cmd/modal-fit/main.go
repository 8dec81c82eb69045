package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-modal/analysis"
	"github.com/cwbudde/algo-modal/internal/config"
	"github.com/cwbudde/algo-modal/internal/engine"
	"github.com/cwbudde/algo-modal/internal/logger"
	"github.com/cwbudde/algo-modal/internal/wavio"
)

type fitOptions struct {
	reference   string
	outputWAV   string
	outputCfg   string
	report      string
	variant     string
	pop         int
	iters       int
	seed        int64
	maxDuration float64
}

type report struct {
	Reference  string           `json:"reference"`
	Model      string           `json:"model"`
	Evals      int              `json:"evals"`
	Elapsed    float64          `json:"elapsed_s"`
	HintScale  float64          `json:"hint_freq_scale"`
	FreqScale  float32          `json:"freq_scale"`
	DecayScale float32          `json:"decay_scale"`
	Metrics    analysis.Metrics `json:"metrics"`
}

func main() {
	fs := flag.NewFlagSet("modal-fit", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	var opts fitOptions
	fs.StringVar(&opts.reference, "reference", "", "Reference WAV recording of a strike")
	fs.StringVar(&opts.outputWAV, "output", "out/fit.wav", "Best candidate WAV path")
	fs.StringVar(&opts.outputCfg, "output-config", "out/fit.yaml", "Config file with the fitted scales")
	fs.StringVar(&opts.report, "report", "out/fit.json", "JSON report path")
	fs.StringVar(&opts.variant, "mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	fs.IntVar(&opts.pop, "mayfly-pop", 10, "Mayfly population size")
	fs.IntVar(&opts.iters, "mayfly-iters", 30, "Mayfly iterations")
	fs.Int64Var(&opts.seed, "seed", 1, "Optimizer random seed")
	fs.Float64Var(&opts.maxDuration, "max-duration", 4, "Longest stretch of the reference compared, in seconds")
	_ = fs.Parse(os.Args[1:])

	if opts.reference == "" {
		fmt.Fprintln(os.Stderr, "missing -reference")
		os.Exit(2)
	}
	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, opts); err != nil {
		logger.Error("fit failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts fitOptions) error {
	ref, refRate, err := wavio.ReadMono(opts.reference)
	if err != nil {
		return fmt.Errorf("read reference: %w", err)
	}
	ref, err = wavio.Resample(ref, refRate, cfg.Audio.SampleRate)
	if err != nil {
		return err
	}
	if maxFrames := int(opts.maxDuration * float64(cfg.Audio.SampleRate)); maxFrames > 0 && len(ref) > maxFrames {
		ref = ref[:maxFrames]
	}
	cfg.Audio.Duration = float64(len(ref)) / float64(cfg.Audio.SampleRate)
	cfg.Audio.Channels = 1

	model, err := engine.LoadModel(cfg)
	if err != nil {
		return err
	}

	f := newFitter(cfg, model, ref)
	hint := f.pitchHint()
	bounds := scaleBounds(hint)
	logger.Info("fitting",
		zap.String("reference", opts.reference),
		zap.Int("frames", len(ref)),
		zap.Float64("freq_hint", hint),
		zap.Float64s("freq_range", []float64{bounds.freqLo, bounds.freqHi}),
	)

	mcfg, err := newMayflyConfig(strings.ToLower(opts.variant), opts.pop, 2, opts.iters)
	if err != nil {
		return err
	}
	mcfg.Rand = rand.New(rand.NewSource(opts.seed))
	mcfg.ObjectiveFunc = func(pos []float64) float64 {
		freq, decay := bounds.denormalize(pos)
		return f.evaluate(freq, decay)
	}
	start := time.Now()
	if _, err := runMayfly(mcfg); err != nil {
		return err
	}
	if f.best.samples == nil {
		return fmt.Errorf("no candidate rendered")
	}

	logger.Info("fit finished",
		zap.Int("evals", f.evals),
		zap.Float32("freq_scale", f.best.freq),
		zap.Float32("decay_scale", f.best.decay),
		zap.Float64("score", f.best.metrics.Score),
		zap.Float64("similarity", f.best.metrics.Similarity),
	)

	if err := wavio.WriteInterleaved(opts.outputWAV, f.best.samples, 1, cfg.Audio.SampleRate); err != nil {
		return err
	}
	cfg.Synth.FreqScale = f.best.freq
	cfg.Synth.DecayScale = f.best.decay
	if err := cfg.SaveTo(opts.outputCfg); err != nil {
		return err
	}
	return writeReport(opts.report, report{
		Reference:  opts.reference,
		Model:      model.ID,
		Evals:      f.evals,
		Elapsed:    time.Since(start).Seconds(),
		HintScale:  hint,
		FreqScale:  f.best.freq,
		DecayScale: f.best.decay,
		Metrics:    f.best.metrics,
	})
}

func writeReport(path string, r report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
