package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-modal/internal/config"
	"github.com/cwbudde/algo-modal/internal/engine"
	"github.com/cwbudde/algo-modal/internal/logger"
)

func main() {
	fs := flag.NewFlagSet("modal-play", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	strikes := fs.Int("strikes", 0, "Stop after this many strikes (0 plays until interrupted)")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *strikes); err != nil {
		logger.Error("playback failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, strikes int) error {
	model, err := engine.LoadModel(cfg)
	if err != nil {
		return err
	}
	e, err := engine.New(cfg, model, logger.Log)
	if err != nil {
		return err
	}
	defer e.Close()

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.Audio.SampleRate,
		ChannelCount: cfg.Audio.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(cfg.Audio.BlockSize) * time.Second / time.Duration(cfg.Audio.SampleRate) * 4,
	})
	if err != nil {
		return fmt.Errorf("audio device: %w", err)
	}
	<-ready

	player := otoCtx.NewPlayer(newStream(e, cfg.Audio.BlockSize))
	player.Play()
	defer player.Close()
	logger.Info("playing", zap.Int("sample_rate", cfg.Audio.SampleRate), zap.Duration("interval", cfg.Strike.Interval))
	if cfg.Friction.Loop != "" {
		if err := e.Rub(cfg.Friction.FreqPct, cfg.Friction.LevelDB); err != nil {
			return err
		}
	}

	interval := cfg.Strike.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	count := 0
	for {
		if err := e.Strike(); err != nil {
			return err
		}
		count++
		logger.Debug("strike", zap.Int("n", count))
		if strikes > 0 && count >= strikes {
			// Let the last strike ring out.
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
			return nil
		}
		select {
		case <-ctx.Done():
			logger.Info("stopping")
			return nil
		case <-ticker.C:
		}
	}
}
