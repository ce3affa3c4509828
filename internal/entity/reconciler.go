package entity

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"starlane.io/internal/protocol"
)

// Sink receives entity lifecycle callbacks. DestroyEntity must release the
// render resource and label before returning.
type Sink interface {
	CreateEntity(e *Entity)
	UpdateEntity(e *Entity)
	DestroyEntity(e *Entity)
}

// SelfIdentity reports the id the server assigned to the local craft, or ""
// before the welcome arrives.
type SelfIdentity interface {
	SelfID() string
}

// Snapshot is one full listing from the server. A nil list leaves that kind
// untouched; an empty list removes everything of that kind.
type Snapshot struct {
	Players []protocol.PlayerRecord
	Objects []protocol.SpaceObjectRecord
}

func SnapshotFrom(gs *protocol.GameState) Snapshot {
	if gs == nil {
		return Snapshot{}
	}
	return Snapshot{Players: gs.Players, Objects: gs.SpaceObjects}
}

type Stats struct {
	Created   int
	Updated   int
	Destroyed int
}

type Reconciler struct {
	reg  *Registry
	sink Sink
	self SelfIdentity
}

func NewReconciler(reg *Registry, sink Sink, self SelfIdentity) *Reconciler {
	return &Reconciler{reg: reg, sink: sink, self: self}
}

// Apply brings the registry in line with s using a mark-sweep pass per kind.
func (r *Reconciler) Apply(s Snapshot) Stats {
	var st Stats
	if s.Players != nil {
		r.applyPlayers(s.Players, &st)
	}
	if s.Objects != nil {
		r.applyObjects(s.Objects, &st)
	}
	return st
}

func (r *Reconciler) applyPlayers(recs []protocol.PlayerRecord, st *Stats) {
	r.mark(KindRemotePlayer)

	selfID := ""
	if r.self != nil {
		selfID = r.self.SelfID()
	}
	for i := range recs {
		rec := &recs[i]
		// Our own echo is stale next to the locally simulated pose.
		if selfID != "" && rec.ID == selfID {
			continue
		}
		pose := Pose{
			Position: mgl64.Vec3{rec.X, rec.Y, rec.Z},
			Rotation: mgl64.Vec3{0, rec.RotationY, rec.RotationZ},
		}
		if e, ok := r.reg.Get(KindRemotePlayer, rec.ID); ok {
			r.update(e, pose, st)
			continue
		}
		r.create(&Entity{
			Key:    Key{Kind: KindRemotePlayer, ID: rec.ID},
			Pose:   pose,
			Player: &PlayerDescriptor{Name: rec.Name},
		}, st)
	}

	r.sweep(KindRemotePlayer, st)
}

func (r *Reconciler) applyObjects(recs []protocol.SpaceObjectRecord, st *Stats) {
	r.mark(KindSpaceObject)

	for i := range recs {
		rec := &recs[i]
		if e, ok := r.reg.Get(KindSpaceObject, rec.ID); ok {
			pose := e.Pose
			pose.Position = mgl64.Vec3{rec.X, rec.Y, rec.Z}
			r.update(e, pose, st)
			continue
		}
		r.create(&Entity{
			Key:    Key{Kind: KindSpaceObject, ID: rec.ID},
			Pose:   Pose{Position: mgl64.Vec3{rec.X, rec.Y, rec.Z}},
			Object: objectDescriptor(rec),
		}, st)
	}

	r.sweep(KindSpaceObject, st)
}

func objectDescriptor(rec *protocol.SpaceObjectRecord) *ObjectDescriptor {
	return &ObjectDescriptor{
		Type:              ParseObjectType(rec.Type),
		RawType:           rec.Type,
		Name:              rec.Name,
		Radius:            rec.Radius,
		Color:             rec.Color,
		RotationSpeed:     rec.RotationSpeed,
		Opacity:           rec.Opacity,
		Emission:          rec.Emission,
		EmissionColor:     rec.EmissionColor,
		EmissionIntensity: rec.EmissionIntensity,
		HasRings:          rec.HasRings,
		RingsInnerRadius:  rec.RingsInnerRadius,
		RingsOuterRadius:  rec.RingsOuterRadius,
		RingsColor:        rec.RingsColor,
	}
}

func (r *Reconciler) mark(kind Kind) {
	r.reg.each(kind, func(e *Entity) { e.live = false })
}

func (r *Reconciler) create(e *Entity, st *Stats) {
	e.live = true
	r.reg.insert(e)
	if r.sink != nil {
		r.sink.CreateEntity(e)
	}
	st.Created++
}

func (r *Reconciler) update(e *Entity, pose Pose, st *Stats) {
	e.Pose = pose
	if !e.live {
		// A repeated id in one list counts once.
		e.live = true
		st.Updated++
	}
	if r.sink != nil {
		r.sink.UpdateEntity(e)
	}
}

func (r *Reconciler) sweep(kind Kind, st *Stats) {
	var dead []*Entity
	r.reg.each(kind, func(e *Entity) {
		if !e.live {
			dead = append(dead, e)
		}
	})
	sort.Slice(dead, func(i, j int) bool { return dead[i].Key.ID < dead[j].Key.ID })
	for _, e := range dead {
		if r.sink != nil {
			r.sink.DestroyEntity(e)
		}
		r.reg.remove(e.Key)
		st.Destroyed++
	}
}
