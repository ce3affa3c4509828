package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"starlane.io/internal/client"
	"starlane.io/internal/input"
	"starlane.io/internal/logging"
	"starlane.io/internal/persistence"
	"starlane.io/internal/protocol"
	"starlane.io/internal/render/term"
	"starlane.io/internal/transport/ws"
	"starlane.io/internal/tuning"
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:3333/game", "game server ws url")
		name       = flag.String("name", "pilot", "pilot name sent on join")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		logPath    = flag.String("log", "starlane.log", "log file (the terminal belongs to the HUD)")
		logLevel   = flag.String("log_level", "info", "trace|debug|info|warn|error")
		recordDir  = flag.String("record", "", "directory for recorded inbound frames (empty to disable)")
		indexPath  = flag.String("index", "", "sqlite session index path (empty to disable)")
		strict     = flag.Bool("strict", false, "drop inbound frames that fail schema validation")
	)
	flag.Parse()

	lf, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log:", err)
		os.Exit(1)
	}
	defer lf.Close()
	logger := logging.New(lf, *logLevel, false).With().Str("bin", "client").Logger()

	if err := run(logger, runConfig{
		URL:        strings.TrimSpace(*url),
		Name:       strings.TrimSpace(*name),
		TuningPath: *tuningPath,
		RecordDir:  strings.TrimSpace(*recordDir),
		IndexPath:  strings.TrimSpace(*indexPath),
		Strict:     *strict,
	}); err != nil {
		logger.Error().Err(err).Msg("exit")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runConfig struct {
	URL        string
	Name       string
	TuningPath string
	RecordDir  string
	IndexPath  string
	Strict     bool
}

func run(logger zerolog.Logger, cfg runConfig) error {
	tune, found, err := tuning.LoadOrDefault(cfg.TuningPath)
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}
	if !found {
		logger.Info().Str("path", cfg.TuningPath).Msg("tuning not found; using defaults")
	}

	var validator *protocol.Validator
	if cfg.Strict {
		if validator, err = protocol.NewValidator(); err != nil {
			return fmt.Errorf("schemas: %w", err)
		}
	}

	p, err := persistence.Open(cfg.RecordDir, cfg.IndexPath, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse(tcell.MouseDragEvents)
	screen.HideCursor()

	hud := term.NewHUD(screen)
	hud.TickRate = float64(tune.TickRateHz)
	src := term.NewSource(screen, term.DefaultKeyMap(), tune.Input.HoldWindow())
	go src.Run()

	ch := ws.NewChannel(ws.Config{
		URL:              cfg.URL,
		RetryDelay:       tune.Net.RetryDelay(),
		HandshakeTimeout: tune.Net.HandshakeTimeout(),
		WriteTimeout:     tune.Net.WriteTimeout(),
		Validator:        validator,
		Log:              logger,
	})
	defer ch.Close()

	c := client.New(client.Options{
		Name:     cfg.Name,
		Flight:   tune.Flight,
		Sink:     hud,
		Out:      ch,
		Recorder: p.Recorder(),
		Index:    p.Index(),
		Log:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		select {
		case <-src.Quit():
			stop()
		case <-ctx.Done():
		}
	}()

	w, h := screen.Size()
	ch.Start()
	logger.Info().Str("url", cfg.URL).Str("name", cfg.Name).Int("tick_hz", tune.TickRateHz).Msg("starting")
	err = c.Run(ctx, client.Sources{
		Transport: ch.Events(),
		Input:     src.Events(),
		Pilot:     input.NewSampler(float64(w), float64(h)),
		Tick:      tune.TickInterval(),
	})
	st := c.Stats()
	logger.Info().
		Uint64("ticks", st.Ticks).
		Uint64("frames", st.Frames).
		Uint64("malformed", st.Malformed).
		Uint64("send_failed", st.SendFailed).
		Msg("stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
