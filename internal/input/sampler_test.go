package input

import "testing"

func TestSampler_ToggleIsEdgeTriggered(t *testing.T) {
	s := NewSampler(800, 600)

	s.Apply(Event{Kind: EventPress, Control: ControlToggleTravel})
	fired := 0
	for i := 0; i < 30; i++ {
		// Keyboard autorepeat while the key stays down.
		s.Apply(Event{Kind: EventPress, Control: ControlToggleTravel})
		if s.Sample().ToggleTravelMode {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("held toggle fired %d times, want 1", fired)
	}

	s.Apply(Event{Kind: EventRelease, Control: ControlToggleTravel})
	if s.Sample().ToggleTravelMode {
		t.Fatalf("release must not fire a toggle")
	}
	s.Apply(Event{Kind: EventPress, Control: ControlToggleTravel})
	if !s.Sample().ToggleTravelMode {
		t.Fatalf("re-press should fire again")
	}
}

func TestSampler_ScanFiresOncePerPress(t *testing.T) {
	s := NewSampler(800, 600)
	s.Apply(Event{Kind: EventPress, Control: ControlScan})
	s.Apply(Event{Kind: EventPress, Control: ControlScan})
	if !s.Sample().Scan {
		t.Fatalf("expected scan edge")
	}
	if s.Sample().Scan {
		t.Fatalf("scan edge should be consumed")
	}
}

func TestSampler_ThrustPressesDrainOnePerTick(t *testing.T) {
	s := NewSampler(800, 600)
	for i := 0; i < 3; i++ {
		s.Apply(Event{Kind: EventPress, Control: ControlThrustUp})
	}
	s.Apply(Event{Kind: EventPress, Control: ControlThrustDown})

	var deltas []int
	for i := 0; i < 4; i++ {
		deltas = append(deltas, s.Sample().ThrustDelta)
	}
	want := []int{1, 1, 0, 0}
	for i := range want {
		if deltas[i] != want[i] {
			t.Fatalf("deltas=%v want %v", deltas, want)
		}
	}
}

func TestSampler_PointerDeflectionIsNormalizedAndClamped(t *testing.T) {
	s := NewSampler(800, 600)
	if s.Sample().Engaged {
		t.Fatalf("no pointer, no turn keys: should not be engaged")
	}

	s.Apply(Event{Kind: EventPointerDown, X: 400 + 150, Y: 300 - 300})
	in := s.Sample()
	if !in.Engaged {
		t.Fatalf("expected engaged while pointer down")
	}
	if in.Turn[0] != 0.5 || in.Turn[1] != -1 {
		t.Fatalf("turn=%v want [0.5 -1]", in.Turn)
	}

	s.Apply(Event{Kind: EventPointerMove, X: 5000, Y: 300})
	if in := s.Sample(); in.Turn[0] != 1 || in.Turn[1] != 0 {
		t.Fatalf("turn=%v want [1 0]", in.Turn)
	}

	s.Apply(Event{Kind: EventPointerUp})
	if in := s.Sample(); in.Engaged || in.Turn[0] != 0 {
		t.Fatalf("pointer up should disengage, got %+v", in)
	}
}

func TestSampler_HeldControls(t *testing.T) {
	s := NewSampler(800, 600)
	s.Apply(Event{Kind: EventPress, Control: ControlBrake})
	s.Apply(Event{Kind: EventPress, Control: ControlRollLeft})
	s.Apply(Event{Kind: EventPress, Control: ControlYawLeft})

	in := s.Sample()
	if !in.Brake || in.Roll != -1 || in.Turn[0] != -1 || !in.Engaged {
		t.Fatalf("unexpected intent %+v", in)
	}
	if in2 := s.Sample(); !in2.Brake {
		t.Fatalf("brake is level triggered and should persist")
	}

	s.Apply(Event{Kind: EventPress, Control: ControlRollRight})
	if in := s.Sample(); in.Roll != 0 {
		t.Fatalf("opposing roll keys should cancel, got %d", in.Roll)
	}
}
