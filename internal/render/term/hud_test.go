package term

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"starlane.io/internal/entity"
	"starlane.io/internal/flight"
	"starlane.io/internal/input"
	"starlane.io/internal/protocol"
	"starlane.io/internal/scene"
)

var _ scene.Sink = (*HUD)(nil)

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("")
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func screenText(h *HUD) string {
	_, hgt := h.screen.Size()
	rows := make([]string, hgt)
	for y := range rows {
		rows[y] = h.Row(y)
	}
	return strings.Join(rows, "\n")
}

func TestHUD_LabelsNearbyAndReleasesOnDestroy(t *testing.T) {
	hud := NewHUD(newSimScreen(t, 100, 40))
	reg := entity.NewRegistry()
	r := entity.NewReconciler(reg, hud, nil)

	r.Apply(entity.Snapshot{
		Players: []protocol.PlayerRecord{{ID: "p2", Name: "rigel", Z: 100}},
		Objects: []protocol.SpaceObjectRecord{
			{ID: "far", Type: "planet", Name: "Kepler", Z: 700},
			{ID: "gone", Type: "station", Name: "Dock", X: -50},
		},
	})
	hud.UpdateCraft(flight.Pose{Orientation: mgl64.QuatIdent()})
	hud.Present()

	text := screenText(hud)
	if !strings.Contains(text, "rigel") || !strings.Contains(text, "Dock") {
		t.Fatalf("nearby labels missing:\n%s", text)
	}
	if strings.Contains(text, "Kepler") {
		t.Fatalf("label beyond %v units should be hidden:\n%s", LabelRange, text)
	}

	r.Apply(entity.Snapshot{Objects: []protocol.SpaceObjectRecord{{ID: "far", Type: "planet", Name: "Kepler", Z: 700}}})
	if len(hud.blips) != 2 {
		t.Fatalf("blips = %d, want 2", len(hud.blips))
	}
	hud.Present()
	if strings.Contains(screenText(hud), "Dock") {
		t.Fatalf("destroyed entity still drawn")
	}
}

func TestHUD_RadarFollowsHeading(t *testing.T) {
	hud := NewHUD(newSimScreen(t, 81, 41))
	e := &entity.Entity{
		Key:    entity.Key{Kind: entity.KindSpaceObject, ID: "s"},
		Pose:   entity.Pose{Position: mgl64.Vec3{0, 0, 200}},
		Object: &entity.ObjectDescriptor{Type: entity.ObjectStar, Name: "Sol"},
	}
	hud.CreateEntity(e)

	hud.UpdateCraft(flight.Pose{Orientation: mgl64.QuatIdent()})
	x, y, _, ok := hud.project(e.Pose.Position, 81, 41)
	if !ok || x != 40 || y >= 20 {
		t.Fatalf("object ahead should plot above centre, got (%d,%d) ok=%v", x, y, ok)
	}

	// Turned to face +X, the same object is now off to one side.
	hud.UpdateCraft(flight.Pose{Orientation: mgl64.QuatRotate(1.5707963267948966, mgl64.Vec3{0, 1, 0})})
	x, y, _, ok = hud.project(e.Pose.Position, 81, 41)
	if !ok || x == 40 || y != 20 {
		t.Fatalf("object abeam should plot beside centre, got (%d,%d) ok=%v", x, y, ok)
	}
}

func TestHUD_StatusAndScan(t *testing.T) {
	hud := NewHUD(newSimScreen(t, 120, 30))
	hud.SetConnected(true)
	hud.SetHull(64)
	hud.SetTravelMode(protocol.Superluminal, 10)
	hud.ShowScan(&protocol.ScannedObject{Name: "Vesta", Type: "asteroid", Distance: 12.5})
	hud.Present()

	top := hud.Row(0)
	if !strings.Contains(top, "ONLINE") || !strings.Contains(top, "64%") || !strings.Contains(top, "superluminal") {
		t.Fatalf("status row = %q", top)
	}
	if !strings.Contains(screenText(hud), "SCAN: Vesta (asteroid)") {
		t.Fatalf("scan panel missing")
	}
	for i := 0; i < scanFrames; i++ {
		hud.Present()
	}
	if strings.Contains(screenText(hud), "SCAN:") {
		t.Fatalf("scan panel should expire")
	}
}

func TestHUD_SpinStaysInRange(t *testing.T) {
	hud := NewHUD(newSimScreen(t, 60, 20))
	e := &entity.Entity{
		Key:    entity.Key{Kind: entity.KindSpaceObject, ID: "a"},
		Pose:   entity.Pose{Position: mgl64.Vec3{0, 0, 50}},
		Object: &entity.ObjectDescriptor{Type: entity.ObjectAsteroid, RotationSpeed: -40},
	}
	hud.CreateEntity(e)
	for i := 0; i < 100; i++ {
		hud.Present()
	}
	b := e.Handle.(*blip)
	if b.spin < 0 || b.spin >= 6.3 {
		t.Fatalf("spin = %v", b.spin)
	}
}

func TestSource_TranslatesKeysAndInfersRelease(t *testing.T) {
	src := NewSource(newSimScreen(t, 80, 24), DefaultKeyMap(), 20*time.Millisecond)

	src.Handle(tcell.NewEventKey(tcell.KeyRune, 'T', tcell.ModNone))
	ev := <-src.Events()
	if ev.Kind != input.EventPress || ev.Control != input.ControlToggleTravel {
		t.Fatalf("press = %+v", ev)
	}
	select {
	case ev = <-src.Events():
		if ev.Kind != input.EventRelease || ev.Control != input.ControlToggleTravel {
			t.Fatalf("release = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no inferred release")
	}

	src.Handle(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	if ev := <-src.Events(); ev.Control != input.ControlThrustUp {
		t.Fatalf("arrow up = %+v", ev)
	}

	src.Handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
	select {
	case <-src.Quit():
	default:
		t.Fatalf("q should request quit")
	}
}

func TestSource_MouseDrag(t *testing.T) {
	src := NewSource(newSimScreen(t, 80, 24), DefaultKeyMap(), 0)
	src.Handle(tcell.NewEventMouse(10, 5, tcell.Button1, tcell.ModNone))
	src.Handle(tcell.NewEventMouse(12, 6, tcell.Button1, tcell.ModNone))
	src.Handle(tcell.NewEventMouse(12, 6, tcell.ButtonNone, tcell.ModNone))
	src.Handle(tcell.NewEventMouse(13, 6, tcell.ButtonNone, tcell.ModNone))

	want := []input.EventKind{input.EventPointerDown, input.EventPointerMove, input.EventPointerUp}
	for i, k := range want {
		ev := <-src.Events()
		if ev.Kind != k {
			t.Fatalf("event %d = %v, want %v", i, ev.Kind, k)
		}
	}
	select {
	case ev := <-src.Events():
		t.Fatalf("hover without button should be ignored, got %+v", ev)
	default:
	}
}

func drain(src *Source, s *input.Sampler, wait time.Duration) {
	deadline := time.After(wait)
	for {
		select {
		case ev := <-src.Events():
			s.Apply(ev)
		case <-deadline:
			return
		}
	}
}

func TestSource_DoubleTapDependsOnHoldWindow(t *testing.T) {
	tap := func(hold, gap time.Duration) int {
		src := NewSource(newSimScreen(t, 80, 24), DefaultKeyMap(), hold)
		s := input.NewSampler(80, 24)
		toggles := 0
		for i := 0; i < 2; i++ {
			src.Handle(tcell.NewEventKey(tcell.KeyRune, 't', tcell.ModNone))
			drain(src, s, gap)
			if s.Sample().ToggleTravelMode {
				toggles++
			}
		}
		return toggles
	}
	if n := tap(200*time.Millisecond, 50*time.Millisecond); n != 1 {
		t.Fatalf("taps inside the hold window: toggles = %d, want 1", n)
	}
	if n := tap(20*time.Millisecond, 150*time.Millisecond); n != 2 {
		t.Fatalf("taps outside the hold window: toggles = %d, want 2", n)
	}
}

func TestHUD_ThrustAndAttitudeReadouts(t *testing.T) {
	hud := NewHUD(newSimScreen(t, 120, 30))
	hud.UpdateCraft(flight.Pose{
		Orientation: mgl64.QuatIdent(),
		Thrust:      30,
		Angles:      flight.Angles{Pitch: 0, Yaw: math.Pi / 2, Roll: math.Pi},
		Rates:       flight.Angles{Yaw: 0.01},
	})
	hud.Present()

	thr := hud.Row(28)
	if !strings.Contains(thr, "THR  +30%") || strings.Contains(thr, "REV") {
		t.Fatalf("thrust row = %q", thr)
	}
	if got := strings.Count(thr, "="); got != 6 {
		t.Fatalf("bar cells = %d, want 6 in %q", got, thr)
	}
	att := hud.Row(27)
	for _, want := range []string{"YAW  90.0°", "(+34.4°/s)", "ROL 180.0°", "PIT   0.0°"} {
		if !strings.Contains(att, want) {
			t.Fatalf("attitude row %q missing %q", att, want)
		}
	}

	hud.UpdateCraft(flight.Pose{Orientation: mgl64.QuatIdent(), Thrust: -50})
	hud.Present()
	thr = hud.Row(28)
	if !strings.Contains(thr, "THR  -50%") || !strings.Contains(thr, "REV") {
		t.Fatalf("reverse thrust row = %q", thr)
	}
	// Reverse fills from the right end of the bar.
	open := strings.Index(thr, "[")
	end := strings.Index(thr, "]")
	bar := thr[open+1 : end]
	if bar != strings.Repeat(" ", 10)+strings.Repeat("=", 10) {
		t.Fatalf("reverse bar = %q", bar)
	}
	_, _, st, _ := hud.screen.GetContent(open+thrustBarWidth, 28)
	if fg, _, _ := st.Decompose(); fg != thrustReverse {
		t.Fatalf("reverse bar colour = %v", fg)
	}
}

func TestThrustColor_Bands(t *testing.T) {
	cases := map[float64]tcell.Color{
		0: thrustLow, 40: thrustLow, 41: thrustMedium, 75: thrustMedium, 76: thrustHigh, -10: thrustReverse,
	}
	for thrust, want := range cases {
		if got := thrustColor(thrust); got != want {
			t.Fatalf("thrustColor(%v) = %v, want %v", thrust, got, want)
		}
	}
}
