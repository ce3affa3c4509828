package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"starlane.io/internal/persistence/indexdb"
)

// indexReport prints the session history kept in the sqlite index.
func indexReport(ctx context.Context, idx *indexdb.SQLiteIndex, scans int, w io.Writer) error {
	joins, err := idx.Joins(ctx)
	if err != nil {
		return fmt.Errorf("joins: %w", err)
	}
	hull, err := idx.HullHistory(ctx)
	if err != nil {
		return fmt.Errorf("hull: %w", err)
	}
	modes, err := idx.TravelModes(ctx)
	if err != nil {
		return fmt.Errorf("travel modes: %w", err)
	}
	recent, err := idx.RecentScans(ctx, scans)
	if err != nil {
		return fmt.Errorf("scans: %w", err)
	}

	fmt.Fprintf(w, "index: joins=%d hull_events=%d mode_changes=%d\n", len(joins), len(hull), len(modes))
	for _, j := range joins {
		fmt.Fprintf(w, "  join %s self=%q at (%.1f, %.1f, %.1f)\n",
			j.At.Format(time.RFC3339), j.SelfID, j.Position.X, j.Position.Y, j.Position.Z)
	}
	if len(hull) > 0 {
		low := hull[0].Hull
		for _, h := range hull {
			low = min(low, h.Hull)
		}
		fmt.Fprintf(w, "  hull last=%.1f lowest=%.1f\n", hull[len(hull)-1].Hull, low)
	}
	for _, m := range modes {
		fmt.Fprintf(w, "  mode %s %s x%.1f\n", m.At.Format(time.RFC3339), m.Mode, m.Speed)
	}
	for _, s := range recent {
		fmt.Fprintf(w, "  scan %s %s (%s) %.1f\n", s.At.Format(time.RFC3339), s.Object.Name, s.Object.Type, s.Object.Distance)
	}
	return nil
}
