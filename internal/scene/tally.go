package scene

import (
	"sort"

	"starlane.io/internal/entity"
	"starlane.io/internal/flight"
	"starlane.io/internal/protocol"
)

// handle stands in for a render resource so leaks show up as a count.
type handle struct {
	key      entity.Key
	released bool
}

// Tally is a headless Sink. It tracks the resources a real renderer would hold
// and keeps the latest of everything it was shown. Used by the bot, the replay
// tool and tests.
type Tally struct {
	live map[entity.Key]*handle

	Created   int
	Updated   int
	Destroyed int
	// Leaked counts destroys for entities the sink never saw created, and
	// creates over a still-live key.
	Leaked int

	Frames      int
	CraftPoses  int
	Craft       flight.Pose
	HasCraft    bool
	Connected   bool
	Hull        float64
	Mode        protocol.TravelMode
	Speed       float64
	Scans       []*protocol.ScannedObject
	AmbientMade int
	AmbientSets int
	Density     float64
	NebulaColor string
}

func NewTally() *Tally {
	return &Tally{live: make(map[entity.Key]*handle)}
}

func (t *Tally) CreateEntity(e *entity.Entity) {
	if _, ok := t.live[e.Key]; ok {
		t.Leaked++
	}
	h := &handle{key: e.Key}
	t.live[e.Key] = h
	e.Handle = h
	t.Created++
}

func (t *Tally) UpdateEntity(e *entity.Entity) { t.Updated++ }

func (t *Tally) DestroyEntity(e *entity.Entity) {
	h, ok := e.Handle.(*handle)
	if !ok || t.live[e.Key] != h {
		t.Leaked++
		return
	}
	h.released = true
	e.Handle = nil
	delete(t.live, e.Key)
	t.Destroyed++
}

// Live returns the keys currently holding a resource, sorted by kind then id.
func (t *Tally) Live() []entity.Key {
	out := make([]entity.Key, 0, len(t.live))
	for k := range t.live {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *Tally) LiveCount() int { return len(t.live) }

func (t *Tally) UpdateCraft(p flight.Pose) {
	t.Craft = p
	t.HasCraft = true
	t.CraftPoses++
}

func (t *Tally) Present() { t.Frames++ }

func (t *Tally) CreateAmbient(density float64, color string) {
	t.AmbientMade++
	t.Density, t.NebulaColor = density, color
}

func (t *Tally) RefreshAmbient(density float64, color string) {
	t.AmbientSets++
	t.Density, t.NebulaColor = density, color
}

func (t *Tally) SetConnected(c bool) { t.Connected = c }
func (t *Tally) SetHull(h float64)   { t.Hull = h }

func (t *Tally) SetTravelMode(m protocol.TravelMode, speed float64) {
	t.Mode, t.Speed = m, speed
}

func (t *Tally) ShowScan(obj *protocol.ScannedObject) { t.Scans = append(t.Scans, obj) }
