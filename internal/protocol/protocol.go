package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound message types (server -> client).
const (
	TypeWelcome          = "welcome"
	TypeUniverseInfo     = "universe_info"
	TypeGameState        = "game_state"
	TypeShipDamage       = "ship_damage"
	TypeTravelModeChange = "travel_mode_change"
	TypeScanResult       = "scan_result"
)

// Outbound message types (client -> server).
const (
	TypeJoin       = "join"
	TypePosition   = "position"
	TypeScanArea   = "scan_area"
	TypeTravelMode = "travel_mode"
)

// ErrMalformed marks an inbound frame that could not be parsed. The frame is
// dropped; the connection and all other processing carry on.
var ErrMalformed = errors.New("malformed message")

// Envelope lets us route inbound JSON messages by type before touching the payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return e, nil
}

// Message is a decoded inbound message: one of *Welcome, *UniverseInfo,
// *GameState, *ShipDamage, *TravelModeChange, *ScanResult or Unknown.
type Message interface {
	MessageType() string
}

// Decode parses one inbound frame. Unknown types decode to Unknown with a nil
// error so callers can ignore them.
func Decode(b []byte) (Message, error) {
	env, err := DecodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	var m Message
	switch env.Type {
	case TypeWelcome:
		m = &Welcome{}
	case TypeUniverseInfo:
		m = &UniverseInfo{}
	case TypeGameState:
		m = &GameState{}
	case TypeShipDamage:
		m = &ShipDamage{}
	case TypeTravelModeChange:
		m = &TravelModeChange{}
	case TypeScanResult:
		m = &ScanResult{}
	default:
		return Unknown{Type: env.Type}, nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: %s: missing data", ErrMalformed, env.Type)
	}
	if err := json.Unmarshal(env.Data, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return m, nil
}
