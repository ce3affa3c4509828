package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sampler folds raw events into one Intent per tick. Held controls are level
// triggered; travel toggle and scan are edge triggered per physical press;
// thrust presses queue and drain one step per sample.
type Sampler struct {
	held map[Control]bool

	thrustQueue int
	togglePend  bool
	scanPend    bool

	pointerDown bool
	pointer     mgl64.Vec2
	viewW       float64
	viewH       float64
}

func NewSampler(viewW, viewH float64) *Sampler {
	return &Sampler{
		held:  map[Control]bool{},
		viewW: viewW,
		viewH: viewH,
	}
}

func (s *Sampler) Apply(ev Event) {
	switch ev.Kind {
	case EventPress:
		s.press(ev.Control)
	case EventRelease:
		s.held[ev.Control] = false
	case EventPointerDown:
		s.pointerDown = true
		s.pointer = mgl64.Vec2{ev.X, ev.Y}
	case EventPointerMove:
		s.pointer = mgl64.Vec2{ev.X, ev.Y}
	case EventPointerUp:
		s.pointerDown = false
	case EventResize:
		s.viewW, s.viewH = ev.X, ev.Y
	}
}

func (s *Sampler) press(c Control) {
	wasHeld := s.held[c]
	s.held[c] = true
	switch c {
	case ControlThrustUp:
		s.thrustQueue++
	case ControlThrustDown:
		s.thrustQueue--
	case ControlToggleTravel:
		if !wasHeld {
			s.togglePend = true
		}
	case ControlScan:
		if !wasHeld {
			s.scanPend = true
		}
	}
}

// Held reports whether c is currently down.
func (s *Sampler) Held(c Control) bool { return s.held[c] }

func (s *Sampler) Sample() Intent {
	var in Intent

	if s.pointerDown {
		in.Turn = s.pointerDeflection()
		in.Engaged = true
	}
	if x := axis(s.held[ControlYawRight], s.held[ControlYawLeft]); x != 0 {
		in.Turn[0] = x
		in.Engaged = true
	}
	if y := axis(s.held[ControlPitchDown], s.held[ControlPitchUp]); y != 0 {
		in.Turn[1] = y
		in.Engaged = true
	}

	in.Roll = int(axis(s.held[ControlRollRight], s.held[ControlRollLeft]))
	in.Brake = s.held[ControlBrake]

	switch {
	case s.thrustQueue > 0:
		in.ThrustDelta = 1
		s.thrustQueue--
	case s.thrustQueue < 0:
		in.ThrustDelta = -1
		s.thrustQueue++
	}

	in.ToggleTravelMode = s.togglePend
	in.Scan = s.scanPend
	s.togglePend = false
	s.scanPend = false
	return in
}

func (s *Sampler) pointerDeflection() mgl64.Vec2 {
	maxDist := math.Min(s.viewW, s.viewH) / 2
	if maxDist <= 0 {
		return mgl64.Vec2{}
	}
	return mgl64.Vec2{
		mgl64.Clamp((s.pointer[0]-s.viewW/2)/maxDist, -1, 1),
		mgl64.Clamp((s.pointer[1]-s.viewH/2)/maxDist, -1, 1),
	}
}

func axis(pos, neg bool) float64 {
	switch {
	case pos && !neg:
		return 1
	case neg && !pos:
		return -1
	default:
		return 0
	}
}
