package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-modal/internal/config"
	"github.com/cwbudde/algo-modal/internal/engine"
	"github.com/cwbudde/algo-modal/internal/logger"
	"github.com/cwbudde/algo-modal/internal/wavio"
	"github.com/cwbudde/algo-modal/modelfile"
)

func main() {
	fs := flag.NewFlagSet("modal-render", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	output := fs.String("output", "output.wav", "Output WAV file path")
	dumpModel := fs.String("dump-model", "", "Also write the loaded model as JSON to this path")
	_ = fs.Parse(os.Args[1:])

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

	if err := run(cfg, *output, *dumpModel); err != nil {
		logger.Error("render failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, output string, dumpModel string) error {
	model, err := engine.LoadModel(cfg)
	if err != nil {
		return err
	}
	if dumpModel != "" {
		if err := modelfile.SaveJSON(dumpModel, model); err != nil {
			return fmt.Errorf("dump model: %w", err)
		}
		logger.Info("model written", zap.String("path", dumpModel))
	}

	e, err := engine.New(cfg, model, logger.Log)
	if err != nil {
		return err
	}
	defer e.Close()

	logger.Info("rendering",
		zap.Float64("seconds", cfg.Audio.Duration),
		zap.Int("sample_rate", cfg.Audio.SampleRate),
		zap.Int("channels", cfg.Audio.Channels),
		zap.Float32("gain_db", cfg.Synth.GainDB),
	)
	samples, err := e.RenderOffline(cfg.Audio.Duration, cfg.Audio.BlockSize)
	if err != nil {
		return err
	}

	peak := wavio.Peak(samples)
	if peak > 1 {
		logger.Warn("output clips", zap.Float64("peak_dbfs", 20*math.Log10(float64(peak))))
	}
	if err := wavio.WriteInterleaved(output, samples, cfg.Audio.Channels, cfg.Audio.SampleRate); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	logger.Info("wrote output",
		zap.String("path", output),
		zap.Int("frames", len(samples)/cfg.Audio.Channels),
		zap.Float32("peak", peak),
	)
	return nil
}
