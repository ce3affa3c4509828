package indexdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"starlane.io/internal/protocol"
)

func TestSQLiteIndex_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	idx.RecordJoin("p-1", protocol.Vec3{X: 1, Y: 2, Z: 3})
	idx.RecordHull(90)
	idx.RecordHull(75.5)
	idx.RecordTravelMode(protocol.Superluminal, 12)
	idx.RecordScan(protocol.ScannedObject{Name: "Kepler", Type: "planet", Distance: 420, Details: map[string]interface{}{"moons": 2.0}})
	idx.RecordScan(protocol.ScannedObject{Name: "Vesta", Type: "asteroid", Distance: 30})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	ctx := context.Background()

	joins, err := idx.Joins(ctx)
	if err != nil || len(joins) != 1 {
		t.Fatalf("joins = %v err=%v", joins, err)
	}
	if joins[0].SelfID != "p-1" || joins[0].Position != (protocol.Vec3{X: 1, Y: 2, Z: 3}) || joins[0].At.IsZero() {
		t.Fatalf("join row = %+v", joins[0])
	}

	hull, err := idx.HullHistory(ctx)
	if err != nil || len(hull) != 2 || hull[0].Hull != 90 || hull[1].Hull != 75.5 {
		t.Fatalf("hull = %+v err=%v", hull, err)
	}

	modes, err := idx.TravelModes(ctx)
	if err != nil || len(modes) != 1 || modes[0].Mode != protocol.Superluminal || modes[0].Speed != 12 {
		t.Fatalf("modes = %+v err=%v", modes, err)
	}

	scans, err := idx.RecentScans(ctx, 10)
	if err != nil || len(scans) != 2 {
		t.Fatalf("scans = %+v err=%v", scans, err)
	}
	if scans[0].Object.Name != "Vesta" || scans[1].Object.Name != "Kepler" {
		t.Fatalf("scans not newest first: %+v", scans)
	}
	if scans[1].Object.Details["moons"] != 2.0 {
		t.Fatalf("details = %v", scans[1].Object.Details)
	}
}

func TestSQLiteIndex_ClosedRejectsQueriesAndIgnoresWrites(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	idx.RecordHull(10)
	if err := idx.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := idx.Joins(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestSQLiteIndex_DropsWhenQueueFull(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.now = time.Now
	s.RecordHull(1)
	s.RecordHull(2)
	s.RecordScan(protocol.ScannedObject{Name: "x"})
	if s.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", s.Dropped())
	}
}
