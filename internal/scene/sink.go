// Package scene defines what the client core asks of a renderer.
package scene

import (
	"starlane.io/internal/entity"
	"starlane.io/internal/flight"
	"starlane.io/internal/protocol"
)

// Sink is the render side of the client. Every call happens on the client's
// logical thread, between or at tick boundaries.
type Sink interface {
	entity.Sink

	// UpdateCraft is called once per tick after the local craft is spawned.
	UpdateCraft(p flight.Pose)
	// Present ends a tick. Cosmetic per-frame work (object spin, fades)
	// happens here.
	Present()

	CreateAmbient(density float64, color string)
	RefreshAmbient(density float64, color string)

	SetConnected(connected bool)
	SetHull(hull float64)
	SetTravelMode(mode protocol.TravelMode, speed float64)
	// ShowScan displays one scan result. obj is nil when nothing is in range.
	ShowScan(obj *protocol.ScannedObject)
}

// Discard is a Sink that does nothing.
type Discard struct{}

func (Discard) CreateEntity(*entity.Entity)                {}
func (Discard) UpdateEntity(*entity.Entity)                {}
func (Discard) DestroyEntity(*entity.Entity)               {}
func (Discard) UpdateCraft(flight.Pose)                    {}
func (Discard) Present()                                   {}
func (Discard) CreateAmbient(float64, string)              {}
func (Discard) RefreshAmbient(float64, string)             {}
func (Discard) SetConnected(bool)                          {}
func (Discard) SetHull(float64)                            {}
func (Discard) SetTravelMode(protocol.TravelMode, float64) {}
func (Discard) ShowScan(*protocol.ScannedObject)           {}
