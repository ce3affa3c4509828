package entity

import (
	"github.com/go-gl/mathgl/mgl64"
)

type Kind uint8

const (
	KindRemotePlayer Kind = iota + 1
	KindSpaceObject
)

func (k Kind) String() string {
	switch k {
	case KindRemotePlayer:
		return "player"
	case KindSpaceObject:
		return "object"
	default:
		return "unknown"
	}
}

// Key identifies a tracked entity. IDs are only unique within a kind.
type Key struct {
	Kind Kind
	ID   string
}

// Pose is the only part of an entity a snapshot may change.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3 // euler x (pitch), y (yaw), z (roll), radians
}

type ObjectType string

const (
	ObjectStar     ObjectType = "star"
	ObjectPlanet   ObjectType = "planet"
	ObjectMoon     ObjectType = "moon"
	ObjectAsteroid ObjectType = "asteroid"
	ObjectNebula   ObjectType = "nebula"
	ObjectStation  ObjectType = "station"
	ObjectGeneric  ObjectType = "generic"
)

// ParseObjectType never fails: unknown or missing subtypes render generic.
func ParseObjectType(s string) ObjectType {
	switch t := ObjectType(s); t {
	case ObjectStar, ObjectPlanet, ObjectMoon, ObjectAsteroid, ObjectNebula, ObjectStation:
		return t
	default:
		return ObjectGeneric
	}
}

type PlayerDescriptor struct {
	Name string
}

type ObjectDescriptor struct {
	Type ObjectType
	// RawType is the subtype as sent, kept for labels when Type is generic.
	RawType string
	Name    string

	Radius        float64
	Color         string
	RotationSpeed float64
	Opacity       float64

	Emission          bool
	EmissionColor     string
	EmissionIntensity float64

	HasRings         bool
	RingsInnerRadius float64
	RingsOuterRadius float64
	RingsColor       string
}

// Entity is one mirrored occupant of the universe. Exactly one of Player and
// Object is set, matching Key.Kind, and neither changes after creation.
type Entity struct {
	Key    Key
	Pose   Pose
	Player *PlayerDescriptor
	Object *ObjectDescriptor

	// Handle belongs to the scene sink (mesh, label, ...). The reconciler
	// never looks at it.
	Handle any

	live bool
}

func (e *Entity) Label() string {
	switch {
	case e.Player != nil && e.Player.Name != "":
		return e.Player.Name
	case e.Object != nil && e.Object.Name != "":
		return e.Object.Name
	default:
		return e.Key.ID
	}
}
