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
	"time"

	"github.com/rs/zerolog"

	"starlane.io/internal/client"
	"starlane.io/internal/input"
	"starlane.io/internal/logging"
	"starlane.io/internal/persistence"
	"starlane.io/internal/protocol"
	"starlane.io/internal/scene"
	"starlane.io/internal/transport/ws"
	"starlane.io/internal/tuning"
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:3333/game", "game server ws url")
		name       = flag.String("name", "bot", "pilot name sent on join")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		duration   = flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "autopilot random seed")
		cruise     = flag.Int("cruise", 40, "thrust steps to apply after spawning")
		scanEvery  = flag.Int("scan_every", 600, "ticks between scans (0 disables)")
		toggleEvry = flag.Int("toggle_every", 0, "ticks between travel mode toggles (0 disables)")
		statsEvery = flag.Duration("stats_every", 10*time.Second, "stats log interval")
		logLevel   = flag.String("log_level", "info", "trace|debug|info|warn|error")
		recordDir  = flag.String("record", "", "directory for recorded inbound frames (empty to disable)")
		indexPath  = flag.String("index", "", "sqlite session index path (empty to disable)")
		strict     = flag.Bool("strict", false, "drop inbound frames that fail schema validation")
	)
	flag.Parse()

	logger := logging.New(os.Stderr, *logLevel, true).With().Str("bin", "bot").Str("name", *name).Logger()

	pilot := newAutopilot(*seed, *cruise, 120, *scanEvery, *toggleEvry)
	if err := run(logger, pilot, botConfig{
		URL:        strings.TrimSpace(*url),
		Name:       strings.TrimSpace(*name),
		TuningPath: *tuningPath,
		Duration:   *duration,
		StatsEvery: *statsEvery,
		RecordDir:  strings.TrimSpace(*recordDir),
		IndexPath:  strings.TrimSpace(*indexPath),
		Strict:     *strict,
	}); err != nil {
		logger.Fatal().Err(err).Msg("bot failed")
	}
}

type botConfig struct {
	URL        string
	Name       string
	TuningPath string
	Duration   time.Duration
	StatsEvery time.Duration
	RecordDir  string
	IndexPath  string
	Strict     bool
}

func run(logger zerolog.Logger, pilot client.Pilot, cfg botConfig) error {
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

	ch := ws.NewChannel(ws.Config{
		URL:              cfg.URL,
		RetryDelay:       tune.Net.RetryDelay(),
		HandshakeTimeout: tune.Net.HandshakeTimeout(),
		WriteTimeout:     tune.Net.WriteTimeout(),
		Validator:        validator,
		Log:              logger,
	})
	defer ch.Close()

	sink := scene.NewTally()
	c := client.New(client.Options{
		Name:     cfg.Name,
		Flight:   tune.Flight,
		Sink:     sink,
		Out:      ch,
		Recorder: p.Recorder(),
		Index:    p.Index(),
		Log:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	// Stats lines are built on the loop goroutine by statsPilot and logged
	// here.
	tick := tune.TickInterval()
	statsReq := make(chan chan string)
	if cfg.StatsEvery > 0 {
		go func() {
			t := time.NewTicker(cfg.StatsEvery)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					reply := make(chan string, 1)
					select {
					case statsReq <- reply:
					case <-ctx.Done():
						return
					}
					select {
					case line := <-reply:
						logger.Info().Msg(line)
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	ch.Start()
	logger.Info().Str("url", cfg.URL).Int("tick_hz", tune.TickRateHz).Msg("starting")
	err = c.Run(ctx, client.Sources{
		Transport: ch.Events(),
		Pilot:     &statsPilot{Pilot: pilot, req: statsReq, report: func() string { return summary(c, sink) }},
		Tick:      tick,
	})
	logger.Info().Msg(summary(c, sink))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// statsPilot answers pending stats requests on the loop goroutine, once per
// tick, before handing control to the wrapped pilot.
type statsPilot struct {
	client.Pilot
	req    chan chan string
	report func() string
}

func (s *statsPilot) Sample() input.Intent {
	select {
	case reply := <-s.req:
		reply <- s.report()
	default:
	}
	return s.Pilot.Sample()
}

func summary(c *client.Context, t *scene.Tally) string {
	st := c.Stats()
	return fmt.Sprintf("ticks=%d frames=%d malformed=%d unknown=%d sent=%d send_failed=%d self=%q live=%d hull=%.1f mode=%s scans=%d connected=%v",
		st.Ticks, st.Frames, st.Malformed, st.Unknown, st.Sent, st.SendFailed,
		c.Session.SelfID(), t.LiveCount(), t.Hull, t.Mode, len(t.Scans), t.Connected)
}
