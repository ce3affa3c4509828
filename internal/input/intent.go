package input

import "github.com/go-gl/mathgl/mgl64"

// Intent is the per-tick summary of what the pilot is asking for.
type Intent struct {
	// Turn is the pointer (or turn key) deflection, each axis in [-1,1].
	// X>0 is right of centre, Y>0 is below centre.
	Turn    mgl64.Vec2
	Engaged bool

	Roll        int // -1 left, 0, +1 right
	ThrustDelta int // -1, 0, +1
	Brake       bool

	// Edges: true on exactly one sample per physical press.
	ToggleTravelMode bool
	Scan             bool
}

// Control is a discrete pilot control.
type Control uint8

const (
	ControlNone Control = iota
	ControlThrustUp
	ControlThrustDown
	ControlBrake
	ControlRollLeft
	ControlRollRight
	ControlYawLeft
	ControlYawRight
	ControlPitchUp
	ControlPitchDown
	ControlToggleTravel
	ControlScan
)

var controlNames = map[Control]string{
	ControlThrustUp:     "thrust_up",
	ControlThrustDown:   "thrust_down",
	ControlBrake:        "brake",
	ControlRollLeft:     "roll_left",
	ControlRollRight:    "roll_right",
	ControlYawLeft:      "yaw_left",
	ControlYawRight:     "yaw_right",
	ControlPitchUp:      "pitch_up",
	ControlPitchDown:    "pitch_down",
	ControlToggleTravel: "toggle_travel",
	ControlScan:         "scan",
}

func (c Control) String() string {
	if n, ok := controlNames[c]; ok {
		return n
	}
	return "none"
}

type EventKind uint8

const (
	EventPress EventKind = iota + 1
	EventRelease
	EventPointerDown
	EventPointerMove
	EventPointerUp
	EventResize
)

// Event is one raw input occurrence, already translated from the device.
type Event struct {
	Kind    EventKind
	Control Control
	X, Y    float64 // pointer position or, for EventResize, viewport size
}
