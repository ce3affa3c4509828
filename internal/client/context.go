// Package client owns the per-process client state and the single logical
// thread that mutates it.
package client

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"starlane.io/internal/entity"
	"starlane.io/internal/flight"
	"starlane.io/internal/input"
	"starlane.io/internal/logging"
	"starlane.io/internal/protocol"
	"starlane.io/internal/scene"
	"starlane.io/internal/session"
	"starlane.io/internal/transport/ws"
)

// Sender accepts outbound messages. ws.Channel is the production Sender.
type Sender interface {
	Send(v any) error
}

// Recorder persists raw inbound frames for later replay.
type Recorder interface {
	WriteFrame(raw []byte) error
}

// Index keeps a queryable history of session milestones. Calls must not block.
type Index interface {
	RecordJoin(id string, pos protocol.Vec3)
	RecordHull(hull float64)
	RecordTravelMode(mode protocol.TravelMode, speed float64)
	RecordScan(obj protocol.ScannedObject)
}

type Options struct {
	Name   string
	Flight flight.Params
	Sink   scene.Sink
	Out    Sender

	Recorder Recorder
	Index    Index

	Log zerolog.Logger
}

type Stats struct {
	Ticks     uint64
	Frames    uint64
	Malformed uint64
	Unknown   uint64
	// Skipped counts game_state records left out of their snapshot.
	Skipped    uint64
	Sent       uint64
	SendFailed uint64
}

// Context is everything the client knows. All methods must be called from
// one goroutine; Run is that goroutine in the binaries.
type Context struct {
	name string

	Session  *session.State
	Registry *entity.Registry
	Flight   *flight.Controller

	reconciler *entity.Reconciler
	sink       scene.Sink
	out        Sender
	rec        Recorder
	index      Index

	// spawned flips on the first welcome and stays set: the craft exists
	// locally from then on, even across reconnects.
	spawned bool

	stats Stats

	log     zerolog.Logger
	tickLog zerolog.Logger
}

func New(o Options) *Context {
	if o.Sink == nil {
		o.Sink = scene.Discard{}
	}
	if o.Name == "" {
		o.Name = "pilot"
	}
	log := o.Log.With().Str("component", "client").Logger()
	c := &Context{
		name:     o.Name,
		Session:  session.New(),
		Registry: entity.NewRegistry(),
		Flight:   flight.NewController(o.Flight),
		sink:     o.Sink,
		out:      o.Out,
		rec:      o.Recorder,
		index:    o.Index,
		log:      log,
		tickLog:  logging.PerTick(log),
	}
	c.reconciler = entity.NewReconciler(c.Registry, c.sink, c.Session)
	return c
}

func (c *Context) Stats() Stats  { return c.stats }
func (c *Context) Spawned() bool { return c.spawned }

// HandleEvent applies one transport event.
func (c *Context) HandleEvent(ev ws.Event) {
	switch ev.Kind {
	case ws.EventConnected:
		c.OnConnected()
	case ws.EventDisconnected:
		c.OnDisconnected(ev.Err)
	case ws.EventMessage:
		_ = c.HandleFrame(ev.Data)
	}
}

func (c *Context) OnConnected() {
	c.Session.SetConnected()
	c.sink.SetConnected(true)
	c.log.Info().Str("name", c.name).Msg("connected, joining")
	c.send(protocol.NewJoin(c.name))
}

func (c *Context) OnDisconnected(err error) {
	c.Session.Disconnected()
	c.sink.SetConnected(false)
	c.log.Warn().Err(err).Msg("disconnected")
}

// HandleFrame records, decodes and applies one raw inbound frame. A malformed
// frame is logged and dropped; the returned error is for callers that count.
func (c *Context) HandleFrame(raw []byte) error {
	c.stats.Frames++
	if c.rec != nil {
		if err := c.rec.WriteFrame(raw); err != nil {
			c.tickLog.Warn().Err(err).Msg("record frame")
		}
	}
	m, err := protocol.Decode(raw)
	if err != nil {
		c.stats.Malformed++
		c.log.Warn().Err(err).Msg("dropping frame")
		return err
	}
	return c.Handle(m)
}

// Handle applies one decoded inbound message.
func (c *Context) Handle(m protocol.Message) error {
	switch m := m.(type) {
	case *protocol.Welcome:
		c.onWelcome(m)
	case *protocol.UniverseInfo:
		c.onUniverseInfo(m)
	case *protocol.GameState:
		c.onGameState(m)
	case *protocol.ShipDamage:
		c.onShipDamage(m)
	case *protocol.TravelModeChange:
		return c.onTravelModeChange(m)
	case *protocol.ScanResult:
		c.onScanResult(m)
	default:
		c.stats.Unknown++
		c.log.Debug().Str("type", m.MessageType()).Msg("ignoring unknown message")
	}
	return nil
}

func (c *Context) onWelcome(m *protocol.Welcome) {
	if !c.Session.Welcome(m.ID) {
		c.log.Debug().Str("id", m.ID).Msg("repeat welcome ignored")
		return
	}
	var pos protocol.Vec3
	if m.Position != nil {
		pos = *m.Position
		c.Flight.SetPosition(mgl64.Vec3{pos.X, pos.Y, pos.Z})
	}
	c.spawned = true
	c.log.Info().Str("id", m.ID).Float64("x", pos.X).Float64("y", pos.Y).Float64("z", pos.Z).Msg("welcome")
	if c.index != nil {
		c.index.RecordJoin(m.ID, pos)
	}
}

func (c *Context) onUniverseInfo(m *protocol.UniverseInfo) {
	if c.Session.ApplyUniverse(*m) {
		c.sink.CreateAmbient(m.NebulaDensity, m.NebulaColor)
		return
	}
	c.sink.RefreshAmbient(m.NebulaDensity, m.NebulaColor)
}

func (c *Context) onGameState(m *protocol.GameState) {
	if n := len(m.Skipped); n > 0 {
		c.stats.Skipped += uint64(n)
		c.tickLog.Warn().Int("skipped", n).Str("first", m.Skipped[0].String()).Msg("game_state records skipped")
	}
	st := c.reconciler.Apply(entity.SnapshotFrom(m))
	if st.Created > 0 || st.Destroyed > 0 {
		c.log.Debug().
			Int("created", st.Created).
			Int("destroyed", st.Destroyed).
			Int("tracked", c.Registry.Len()).
			Msg("reconciled")
	}
	if c.Session.ApplyNebula(m.NebulaInfo) && c.Session.AmbientReady {
		c.sink.RefreshAmbient(c.Session.NebulaDensity, c.Session.NebulaColor)
	}
}

func (c *Context) onShipDamage(m *protocol.ShipDamage) {
	if m.Hull == nil {
		return
	}
	c.Session.SetHull(*m.Hull)
	c.sink.SetHull(*m.Hull)
	if c.index != nil {
		c.index.RecordHull(*m.Hull)
	}
}

func (c *Context) onTravelModeChange(m *protocol.TravelModeChange) error {
	if !m.Mode.Valid() {
		c.stats.Malformed++
		c.log.Warn().Str("mode", string(m.Mode)).Msg("ignoring travel_mode_change")
		return fmt.Errorf("%w: travel mode %q", protocol.ErrMalformed, m.Mode)
	}
	c.Flight.SetTravelMode(m.Mode, m.Speed)
	c.sink.SetTravelMode(m.Mode, m.Speed)
	c.log.Info().Str("mode", string(m.Mode)).Float64("speed", m.Speed).Msg("travel mode")
	if c.index != nil {
		c.index.RecordTravelMode(m.Mode, m.Speed)
	}
	return nil
}

func (c *Context) onScanResult(m *protocol.ScanResult) {
	c.Session.LastScan = m.NearestObject
	c.sink.ShowScan(m.NearestObject)
	if m.NearestObject != nil && c.index != nil {
		c.index.RecordScan(*m.NearestObject)
	}
}

// Tick runs one logical frame: edge-triggered requests, flight integration,
// the craft pose to the sink and the position report upstream.
func (c *Context) Tick(in input.Intent) flight.Pose {
	c.stats.Ticks++

	if in.ToggleTravelMode {
		// The server confirms with travel_mode_change; nothing changes here yet.
		want := c.Flight.State().TravelMode.Toggle()
		if c.Session.Connected {
			c.send(protocol.NewTravelMode(want))
		}
	}
	if in.Scan && c.Session.Connected {
		c.send(protocol.NewScanArea())
	}

	pose := c.Flight.Step(in)
	if c.spawned {
		c.sink.UpdateCraft(pose)
	}
	if c.Session.Connected && c.Session.Joined {
		c.send(protocol.PositionMsg{
			Type:      protocol.TypePosition,
			X:         pose.Position[0],
			Y:         pose.Position[1],
			Z:         pose.Position[2],
			RotationY: pose.Angles.Yaw,
			RotationZ: pose.Angles.Roll,
		})
	}
	c.sink.Present()
	return pose
}

func (c *Context) send(v any) {
	if c.out == nil {
		return
	}
	if err := c.out.Send(v); err != nil {
		c.stats.SendFailed++
		c.tickLog.Debug().Err(err).Msg("send dropped")
		return
	}
	c.stats.Sent++
}
