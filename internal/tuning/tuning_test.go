package tuning

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"starlane.io/internal/flight"
)

func TestLoad_RepoConfigMatchesDefaults(t *testing.T) {
	got, err := Load(filepath.Join("..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != Defaults() {
		t.Fatalf("configs/tuning.yaml drifted from Defaults():\n got %+v\nwant %+v", got, Defaults())
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: 30\nflight:\n  max_bank: 0.25\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TickRateHz != 30 || got.Flight.MaxBank != 0.25 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.Flight.ThrustStep != flight.DefaultParams().ThrustStep || got.Net.RetryDelay() != 3*time.Second {
		t.Fatalf("defaults lost: %+v", got)
	}
	if got.TickInterval() != time.Second/30 {
		t.Fatalf("tick interval = %v", got.TickInterval())
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("flight:\n  normal_damping: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected damping validation error")
	}
}

func TestValidate_RejectsNonConvergingFlight(t *testing.T) {
	cases := map[string]func(*Tuning){
		"zero acceleration":     func(t *Tuning) { t.Flight.Acceleration = 0 },
		"negative acceleration": func(t *Tuning) { t.Flight.Acceleration = -0.002 },
		"zero snap threshold":   func(t *Tuning) { t.Flight.SnapThreshold = 0 },
		"zero thrust step":      func(t *Tuning) { t.Flight.ThrustStep = 0 },
		"zero hold window":      func(t *Tuning) { t.Input.HoldWindowMs = 0 },
	}
	for name, mutate := range cases {
		tu := Defaults()
		mutate(&tu)
		if err := tu.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoad_HoldWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("input:\n  hold_window_ms: 250\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.Input.HoldWindow() != 250*time.Millisecond {
		t.Fatalf("hold window = %v", tu.Input.HoldWindow())
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	got, found, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil || found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if got != Defaults() {
		t.Fatalf("missing file should give defaults")
	}
}
