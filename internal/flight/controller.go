package flight

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"starlane.io/internal/input"
	"starlane.io/internal/protocol"
)

const (
	MaxThrust = 100.0
	MinThrust = -100.0
)

var forwardAxis = mgl64.Vec3{0, 0, 1}

type Angles struct {
	Pitch float64
	Yaw   float64
	Roll  float64
}

// CraftState is the locally simulated craft. Only Controller mutates it.
type CraftState struct {
	Position      mgl64.Vec3
	Orientation   Angles
	RotationSpeed Angles
	Thrust        float64
	Braking       bool
	TravelMode    protocol.TravelMode
	TravelSpeed   float64
}

type CameraPose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// Pose is what one tick hands to the renderer and the network.
type Pose struct {
	Position    mgl64.Vec3
	Angles      Angles // Roll includes Bank
	Bank        float64
	Orientation mgl64.Quat
	Forward     mgl64.Vec3
	Speed       float64
	Camera      CameraPose

	// Thrust is the signed throttle in [-100,100]; Rates are the rotation
	// speeds in radians per tick.
	Thrust float64
	Rates  Angles
}

type Controller struct {
	p     Params
	s     CraftState
	bank  float64
	cam   mgl64.Vec3
	ticks uint64
}

func NewController(p Params) *Controller {
	return &Controller{
		p: p,
		s: CraftState{
			TravelMode:  protocol.Subluminal,
			TravelSpeed: 1.0,
		},
		cam: mgl64.Vec3{p.CameraOffset[0], p.CameraOffset[1], p.CameraOffset[2]},
	}
}

func (c *Controller) Params() Params    { return c.p }
func (c *Controller) State() CraftState { return c.s }
func (c *Controller) Ticks() uint64     { return c.ticks }

func (c *Controller) SetPosition(v mgl64.Vec3) { c.s.Position = v }

// SetTravelMode applies the server's authoritative travel mode.
func (c *Controller) SetTravelMode(m protocol.TravelMode, speed float64) {
	c.s.TravelMode = m
	c.s.TravelSpeed = speed
}

func (c *Controller) IncreaseThrust() {
	c.s.Thrust = math.Min(MaxThrust, c.s.Thrust+c.p.ThrustStep)
}

func (c *Controller) DecreaseThrust() {
	c.s.Thrust = math.Max(MinThrust, c.s.Thrust-c.p.ThrustStep)
}

func (c *Controller) brake() {
	switch {
	case c.s.Thrust > 0:
		c.s.Thrust = math.Max(0, c.s.Thrust-c.p.BrakeStep)
	case c.s.Thrust < 0:
		c.s.Thrust = math.Min(0, c.s.Thrust+c.p.BrakeStep)
	}
}

// Step advances the craft by one tick.
func (c *Controller) Step(in input.Intent) Pose {
	c.ticks++

	switch {
	case in.ThrustDelta > 0:
		c.IncreaseThrust()
	case in.ThrustDelta < 0:
		c.DecreaseThrust()
	}
	c.s.Braking = in.Brake
	if c.s.Braking {
		c.brake()
	}

	c.steer(in)

	o := &c.s.Orientation
	rs := c.s.RotationSpeed
	o.Pitch = wrapAngle(o.Pitch + rs.Pitch)
	o.Yaw = wrapAngle(o.Yaw + rs.Yaw)
	o.Roll = wrapAngle(o.Roll + rs.Roll)

	c.bank = mgl64.Clamp(-rs.Yaw*c.p.BankFactor, -c.p.MaxBank, c.p.MaxBank)

	pose := c.Pose()
	c.s.Position = c.s.Position.Add(pose.Forward.Mul(pose.Speed))
	return c.poseAt(c.s.Position)
}

func (c *Controller) steer(in input.Intent) {
	rs := &c.s.RotationSpeed
	mag := in.Turn.Len()
	if in.Engaged && mag > c.p.Deadzone {
		accel := c.p.Acceleration * mag
		rs.Pitch = approach(rs.Pitch, -in.Turn[1]*c.p.MaxAngularSpeed, accel)
		rs.Yaw = approach(rs.Yaw, -in.Turn[0]*c.p.MaxAngularSpeed, accel)
	} else {
		rs.Pitch = c.damp(rs.Pitch)
		rs.Yaw = c.damp(rs.Yaw)
	}

	if in.Roll != 0 {
		rs.Roll = approach(rs.Roll, float64(in.Roll)*c.p.MaxAngularSpeed, c.p.Acceleration)
	} else {
		rs.Roll = c.damp(rs.Roll)
	}

	max := c.p.MaxAngularSpeed
	rs.Pitch = mgl64.Clamp(rs.Pitch, -max, max)
	rs.Yaw = mgl64.Clamp(rs.Yaw, -max, max)
	rs.Roll = mgl64.Clamp(rs.Roll, -max, max)
}

// damp decays one axis. Large residual spin gets the stronger factor on top so
// it settles faster than a small one.
func (c *Controller) damp(v float64) float64 {
	v *= c.p.NormalDamping
	if math.Abs(v) > c.p.AutoDampThreshold {
		v *= c.p.StrongDamping
	}
	if math.Abs(v) < c.p.SnapThreshold {
		return 0
	}
	return v
}

// Pose reports the current pose without advancing the simulation.
func (c *Controller) Pose() Pose { return c.poseAt(c.s.Position) }

func (c *Controller) poseAt(pos mgl64.Vec3) Pose {
	a := c.s.Orientation
	a.Roll = wrapAngle(a.Roll + c.bank)

	q := orientation(a)
	fwd := q.Rotate(forwardAxis)
	return Pose{
		Position:    pos,
		Angles:      a,
		Bank:        c.bank,
		Orientation: q,
		Forward:     fwd,
		Speed:       c.s.Thrust / 100 * c.s.TravelSpeed,
		Camera: CameraPose{
			Position:    pos.Add(q.Rotate(c.cam)),
			Orientation: q,
		},
		Thrust: c.s.Thrust,
		Rates:  c.s.RotationSpeed,
	}
}

// orientation composes pitch (X), yaw (Y) and roll (Z) in XYZ order.
func orientation(a Angles) mgl64.Quat {
	qx := mgl64.QuatRotate(a.Pitch, mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(a.Yaw, mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(a.Roll, mgl64.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz)
}

func approach(v, target, step float64) float64 {
	if v < target {
		return math.Min(v+step, target)
	}
	return math.Max(v-step, target)
}

// wrapAngle maps a into [0, 2π).
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	// Tiny negatives round up to exactly 2π.
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}
