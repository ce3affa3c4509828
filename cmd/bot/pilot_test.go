package main

import (
	"math"
	"testing"

	"starlane.io/internal/flight"
)

func TestAutopilot_ThrottlesToCruise(t *testing.T) {
	a := newAutopilot(1, 5, 10, 0, 0)
	ups := 0
	for i := 0; i < 20; i++ {
		if a.Sample().ThrustDelta == 1 {
			ups++
		}
	}
	if ups != 5 {
		t.Fatalf("thrust steps=%d want 5", ups)
	}
}

func TestAutopilot_AlternatesLegs(t *testing.T) {
	a := newAutopilot(7, 0, 4, 0, 0)
	var engaged []bool
	for i := 0; i < 12; i++ {
		engaged = append(engaged, a.Sample().Engaged)
	}
	for i, e := range engaged {
		want := (i/4)%2 == 0
		if e != want {
			t.Fatalf("tick %d engaged=%v want %v (%v)", i, e, want, engaged)
		}
	}
}

func TestAutopilot_TurnsClearTheDeadzone(t *testing.T) {
	a := newAutopilot(3, 0, 1, 0, 0)
	dz := flight.DefaultParams().Deadzone
	for i := 0; i < 200; i++ {
		in := a.Sample()
		if !in.Engaged {
			continue
		}
		if math.Abs(in.Turn.X()) < dz || math.Abs(in.Turn.X()) > 1 {
			t.Fatalf("turn x=%v outside [%v,1]", in.Turn.X(), dz)
		}
	}
}

func TestAutopilot_PeriodicEdges(t *testing.T) {
	a := newAutopilot(1, 0, 10, 3, 5)
	scans, toggles := 0, 0
	for i := 0; i < 30; i++ {
		in := a.Sample()
		if in.Scan {
			scans++
		}
		if in.ToggleTravelMode {
			toggles++
		}
	}
	if scans != 10 || toggles != 6 {
		t.Fatalf("scans=%d toggles=%d", scans, toggles)
	}
}
