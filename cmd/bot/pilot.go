package main

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"starlane.io/internal/input"
)

// autopilot flies without a human: it throttles up to a cruise setting, then
// alternates between straight legs and random turns. It scans and toggles
// travel mode on fixed periods.
type autopilot struct {
	r *rand.Rand

	cruise      int // thrust steps to apply before levelling off
	legTicks    int
	scanEvery   int
	toggleEvery int

	tick    int
	thrust  int
	legLeft int
	turn    mgl64.Vec2
}

func newAutopilot(seed int64, cruise, legTicks, scanEvery, toggleEvery int) *autopilot {
	if legTicks <= 0 {
		legTicks = 120
	}
	return &autopilot{
		r:           rand.New(rand.NewSource(seed)),
		cruise:      cruise,
		legTicks:    legTicks,
		scanEvery:   scanEvery,
		toggleEvery: toggleEvery,
	}
}

// Apply ignores raw input; the bot has no devices.
func (a *autopilot) Apply(input.Event) {}

func (a *autopilot) Sample() input.Intent {
	a.tick++
	var in input.Intent

	if a.thrust < a.cruise {
		a.thrust++
		in.ThrustDelta = 1
	}

	if a.legLeft <= 0 {
		a.legLeft = a.legTicks
		if a.turn == (mgl64.Vec2{}) {
			// Keep well clear of the steering deadzone.
			a.turn = mgl64.Vec2{a.deflection(), a.deflection() / 2}
		} else {
			a.turn = mgl64.Vec2{}
		}
	}
	a.legLeft--
	if a.turn != (mgl64.Vec2{}) {
		in.Turn = a.turn
		in.Engaged = true
	}

	if a.scanEvery > 0 && a.tick%a.scanEvery == 0 {
		in.Scan = true
	}
	if a.toggleEvery > 0 && a.tick%a.toggleEvery == 0 {
		in.ToggleTravelMode = true
	}
	return in
}

func (a *autopilot) deflection() float64 {
	v := 0.3 + a.r.Float64()*0.7
	if a.r.Intn(2) == 0 {
		v = -v
	}
	return v
}
