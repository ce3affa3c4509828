package protocol

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type TravelMode string

const (
	Subluminal   TravelMode = "subluminal"
	Superluminal TravelMode = "superluminal"
)

func (m TravelMode) Valid() bool { return m == Subluminal || m == Superluminal }

// Toggle returns the mode a toggle request asks for.
func (m TravelMode) Toggle() TravelMode {
	if m == Superluminal {
		return Subluminal
	}
	return Superluminal
}

// WELCOME (server -> client), once per connection after join.
type Welcome struct {
	ID       string `json:"id"`
	Position *Vec3  `json:"position,omitempty"`
}

func (*Welcome) MessageType() string { return TypeWelcome }

type UniverseInfo struct {
	VisualRange   float64 `json:"visual_range"`
	NebulaDensity float64 `json:"nebula_density"`
	NebulaColor   string  `json:"nebula_color"`
}

func (*UniverseInfo) MessageType() string { return TypeUniverseInfo }

// GAME_STATE (server -> client): a full snapshot of everything in range.
// A nil list means the server did not send that kind; an empty list means
// nothing of that kind is in range. Records are decoded one at a time (see
// gamestate.go); the ones that could not be used are listed in Skipped.
type GameState struct {
	Players      []PlayerRecord      `json:"players"`
	SpaceObjects []SpaceObjectRecord `json:"spaceObjects"`
	NebulaInfo   *NebulaInfo         `json:"nebulaInfo,omitempty"`

	Skipped []SkippedRecord `json:"-"`
}

func (*GameState) MessageType() string { return TypeGameState }

type PlayerRecord struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	RotationY float64 `json:"rotationY"`
	RotationZ float64 `json:"rotationZ"`
}

type SpaceObjectRecord struct {
	ID   string  `json:"id"`
	Type string  `json:"type"` // "star", "planet", "moon", "asteroid", "nebula", "station"; anything else renders generic
	Name string  `json:"name,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`

	Radius        float64 `json:"radius,omitempty"`
	Color         string  `json:"color,omitempty"`
	RotationSpeed float64 `json:"rotationSpeed,omitempty"`
	Opacity       float64 `json:"opacity,omitempty"`

	Emission          bool    `json:"emission,omitempty"`
	EmissionColor     string  `json:"emissionColor,omitempty"`
	EmissionIntensity float64 `json:"emissionIntensity,omitempty"`

	HasRings         bool    `json:"hasRings,omitempty"`
	RingsInnerRadius float64 `json:"ringsInnerRadius,omitempty"`
	RingsOuterRadius float64 `json:"ringsOuterRadius,omitempty"`
	RingsColor       string  `json:"ringsColor,omitempty"`
}

type NebulaInfo struct {
	Density float64 `json:"density"`
	Color   string  `json:"color"`
}

type ShipDamage struct {
	Hull *float64 `json:"hull,omitempty"` // 0..100
}

func (*ShipDamage) MessageType() string { return TypeShipDamage }

type TravelModeChange struct {
	Mode  TravelMode `json:"mode"`
	Speed float64    `json:"speed"`
}

func (*TravelModeChange) MessageType() string { return TypeTravelModeChange }

type ScanResult struct {
	NearestObject *ScannedObject `json:"nearestObject,omitempty"`
}

func (*ScanResult) MessageType() string { return TypeScanResult }

type ScannedObject struct {
	Name     string                 `json:"name"`
	Type     string                 `json:"type"`
	Distance float64                `json:"distance"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Unknown is any message whose type this client does not know.
type Unknown struct {
	Type string
}

func (u Unknown) MessageType() string { return u.Type }

// JOIN (client -> server), sent once per connection.
type JoinMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func NewJoin(name string) JoinMsg { return JoinMsg{Type: TypeJoin, Name: name} }

// POSITION (client -> server), sent every tick while connected. Only the
// latest one matters to the server.
type PositionMsg struct {
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	RotationY float64 `json:"rotationY"`
	RotationZ float64 `json:"rotationZ"`
}

type ScanAreaMsg struct {
	Type string `json:"type"`
}

func NewScanArea() ScanAreaMsg { return ScanAreaMsg{Type: TypeScanArea} }

type TravelModeMsg struct {
	Type string     `json:"type"`
	Mode TravelMode `json:"mode"`
}

func NewTravelMode(mode TravelMode) TravelModeMsg {
	return TravelModeMsg{Type: TypeTravelMode, Mode: mode}
}
