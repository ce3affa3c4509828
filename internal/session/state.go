package session

import "starlane.io/internal/protocol"

// State is what the client currently believes about its session. It is only
// touched from the client's logical thread.
type State struct {
	selfID    string
	Connected bool
	Joined    bool

	VisualRange   float64
	NebulaDensity float64
	NebulaColor   string
	AmbientReady  bool

	// Hull is nil until the first ship_damage with a hull value.
	Hull     *float64
	LastScan *protocol.ScannedObject
}

func New() *State { return &State{} }

func (s *State) SelfID() string { return s.selfID }

// Welcome records the server-assigned id. The first welcome on a connection
// wins; later ones are ignored and reported as false.
func (s *State) Welcome(id string) bool {
	if s.Joined {
		return false
	}
	s.selfID = id
	s.Joined = true
	return true
}

func (s *State) SetConnected() { s.Connected = true }

// Disconnected drops the per-connection identity. Universe parameters and the
// ambient effect survive so the scene keeps rendering while offline.
func (s *State) Disconnected() {
	s.Connected = false
	s.Joined = false
	s.selfID = ""
}

// ApplyUniverse stores the visual parameters and reports whether this is the
// first universe_info seen, i.e. whether ambient effects need creating.
func (s *State) ApplyUniverse(u protocol.UniverseInfo) (first bool) {
	s.VisualRange = u.VisualRange
	s.NebulaDensity = u.NebulaDensity
	s.NebulaColor = u.NebulaColor
	first = !s.AmbientReady
	s.AmbientReady = true
	return first
}

// ApplyNebula folds in a game_state nebulaInfo block and reports whether it
// differs from what is already shown.
func (s *State) ApplyNebula(n *protocol.NebulaInfo) (changed bool) {
	if n == nil {
		return false
	}
	if n.Density == s.NebulaDensity && n.Color == s.NebulaColor {
		return false
	}
	s.NebulaDensity = n.Density
	s.NebulaColor = n.Color
	return true
}

func (s *State) SetHull(h float64) { s.Hull = &h }
