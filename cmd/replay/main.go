package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"starlane.io/internal/client"
	"starlane.io/internal/entity"
	"starlane.io/internal/logging"
	"starlane.io/internal/persistence/indexdb"
	persistlog "starlane.io/internal/persistence/log"
	"starlane.io/internal/protocol"
	"starlane.io/internal/scene"
	"starlane.io/internal/tuning"
)

func main() {
	var (
		dir        = flag.String("frames", "", "directory containing frames-*.jsonl.zst")
		indexPath  = flag.String("index", "", "sqlite session index to summarize (optional)")
		scans      = flag.Int("scans", 5, "recent scans to list from the index")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		strict     = flag.Bool("strict", false, "count frames that fail schema validation as rejected")
		logLevel   = flag.String("log_level", "warn", "trace|debug|info|warn|error")
	)
	flag.Parse()

	if *dir == "" && *indexPath == "" {
		fmt.Fprintln(os.Stderr, "missing -frames or -index")
		os.Exit(2)
	}
	logger := logging.New(os.Stderr, *logLevel, true)

	if *indexPath != "" {
		idx, err := indexdb.OpenSQLite(*indexPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open index:", err)
			os.Exit(1)
		}
		err = indexReport(context.Background(), idx, *scans, os.Stdout)
		_ = idx.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, "index:", err)
			os.Exit(1)
		}
		if *dir == "" {
			return
		}
	}

	tune, _, err := tuning.LoadOrDefault(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	var v *protocol.Validator
	if *strict {
		if v, err = protocol.NewValidator(); err != nil {
			fmt.Fprintln(os.Stderr, "schemas:", err)
			os.Exit(1)
		}
	}

	rep, err := replay(*dir, tune, v, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	rep.print(os.Stdout)
	if rep.Leaked > 0 {
		os.Exit(1)
	}
}

type report struct {
	Frames    uint64
	Rejected  uint64
	Malformed uint64
	Unknown   uint64
	Sessions  int
	First     time.Time
	Last      time.Time

	SelfID      string
	Players     int
	Objects     map[entity.ObjectType]int
	Hull        float64
	Mode        protocol.TravelMode
	Scans       int
	Created     int
	Destroyed   int
	Leaked      int
	AmbientSets int
}

// replay feeds every recorded frame through a headless client in order. A
// welcome on an already joined session marks a reconnect, since connection
// events are not recorded.
func replay(dir string, tune tuning.Tuning, v *protocol.Validator, logger zerolog.Logger) (report, error) {
	sink := scene.NewTally()
	c := client.New(client.Options{
		Name:   "replay",
		Flight: tune.Flight,
		Sink:   sink,
		Log:    logger,
	})

	var rep report
	c.OnConnected()
	err := persistlog.ReadFrames(dir, func(fr persistlog.Frame) error {
		if rep.First.IsZero() {
			rep.First = fr.At
		}
		rep.Last = fr.At
		raw := fr.Raw()
		if v != nil {
			if err := v.Validate(raw); err != nil {
				rep.Rejected++
				logger.Warn().Uint64("seq", fr.Seq).Err(err).Msg("rejected")
				return nil
			}
		}
		if env, err := protocol.DecodeEnvelope(raw); err == nil && env.Type == protocol.TypeWelcome {
			if c.Session.Joined {
				c.OnDisconnected(nil)
				c.OnConnected()
			}
			rep.Sessions++
		}
		if err := c.HandleFrame(raw); err != nil && !errors.Is(err, protocol.ErrMalformed) {
			return err
		}
		return nil
	})
	if err != nil {
		return rep, err
	}

	st := c.Stats()
	rep.Frames = st.Frames + rep.Rejected
	rep.Malformed = st.Malformed
	rep.Unknown = st.Unknown
	rep.SelfID = c.Session.SelfID()
	rep.Players = c.Registry.Count(entity.KindRemotePlayer)
	rep.Objects = map[entity.ObjectType]int{}
	for _, e := range c.Registry.Sorted(entity.KindSpaceObject) {
		rep.Objects[e.Object.Type]++
	}
	rep.Hull = sink.Hull
	rep.Mode = sink.Mode
	rep.Scans = len(sink.Scans)
	rep.Created = sink.Created
	rep.Destroyed = sink.Destroyed
	rep.Leaked = sink.Leaked + (sink.LiveCount() - c.Registry.Len())
	rep.AmbientSets = sink.AmbientSets
	return rep, nil
}

func (r report) print(w io.Writer) {
	span := time.Duration(0)
	if !r.First.IsZero() {
		span = r.Last.Sub(r.First)
	}
	fmt.Fprintf(w, "frames=%d rejected=%d malformed=%d unknown=%d sessions=%d span=%s\n",
		r.Frames, r.Rejected, r.Malformed, r.Unknown, r.Sessions, span.Round(time.Millisecond))
	fmt.Fprintf(w, "self=%q hull=%.1f mode=%s scans=%d ambient_sets=%d\n", r.SelfID, r.Hull, r.Mode, r.Scans, r.AmbientSets)
	fmt.Fprintf(w, "players=%d created=%d destroyed=%d leaked=%d\n", r.Players, r.Created, r.Destroyed, r.Leaked)

	types := make([]string, 0, len(r.Objects))
	for t := range r.Objects {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-10s %d\n", t, r.Objects[entity.ObjectType(t)])
	}
}
