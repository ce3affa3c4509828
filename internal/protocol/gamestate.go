package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SkippedRecord is one game_state entry that was left out of the snapshot.
// Index is -1 when the whole list (or nebulaInfo) was unusable.
type SkippedRecord struct {
	List   string
	Index  int
	Reason string
}

func (s SkippedRecord) String() string {
	if s.Index < 0 {
		return fmt.Sprintf("%s: %s", s.List, s.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", s.List, s.Index, s.Reason)
}

var (
	errNoID      = errors.New("missing id")
	errNotObject = errors.New("not an object")
)

// UnmarshalJSON decodes each record on its own so one bad entry never costs
// the rest of the snapshot. Records without a string id, or with coordinates
// that are not numbers, are skipped. Any other field of the wrong type reads
// as its zero value; an object type that is not a string renders generic.
func (g *GameState) UnmarshalJSON(b []byte) error {
	var raw struct {
		Players      json.RawMessage `json:"players"`
		SpaceObjects json.RawMessage `json:"spaceObjects"`
		NebulaInfo   json.RawMessage `json:"nebulaInfo"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*g = GameState{}
	g.Players = decodeList(raw.Players, "players", decodePlayer, &g.Skipped)
	g.SpaceObjects = decodeList(raw.SpaceObjects, "spaceObjects", decodeObject, &g.Skipped)
	if !isNull(raw.NebulaInfo) {
		var n NebulaInfo
		if err := json.Unmarshal(raw.NebulaInfo, &n); err != nil {
			g.Skipped = append(g.Skipped, SkippedRecord{List: "nebulaInfo", Index: -1, Reason: err.Error()})
		} else {
			g.NebulaInfo = &n
		}
	}
	return nil
}

func isNull(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

// decodeList returns nil for an absent or null list and a non-nil slice for
// any array, even when every entry in it was skipped.
func decodeList[T any](b json.RawMessage, list string, dec func(fields) (T, error), skipped *[]SkippedRecord) []T {
	if isNull(b) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*skipped = append(*skipped, SkippedRecord{List: list, Index: -1, Reason: "not an array"})
		return nil
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var f fields
		if err := json.Unmarshal(item, &f); err != nil || f == nil {
			*skipped = append(*skipped, SkippedRecord{List: list, Index: i, Reason: errNotObject.Error()})
			continue
		}
		rec, err := dec(f)
		if err != nil {
			*skipped = append(*skipped, SkippedRecord{List: list, Index: i, Reason: err.Error()})
			continue
		}
		out = append(out, rec)
	}
	return out
}

// fields is one record split into its members.
type fields map[string]json.RawMessage

func (f fields) id() (string, error) {
	var id string
	if err := json.Unmarshal(f["id"], &id); err != nil || id == "" {
		return "", errNoID
	}
	return id, nil
}

// str reads a string member; anything else reads as "".
func (f fields) str(k string) string {
	var s string
	if v, ok := f[k]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

// num reads a numeric member; anything else reads as 0.
func (f fields) num(k string) float64 {
	n, _ := f.coord(k)
	return n
}

func (f fields) flag(k string) bool {
	var v bool
	if raw, ok := f[k]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	return v
}

// coord reads a numeric member that must not be mistyped. Absent or null
// reads as 0.
func (f fields) coord(k string) (float64, error) {
	raw, ok := f[k]
	if !ok || isNull(raw) {
		return 0, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%s is not a number", k)
	}
	return n, nil
}

func (f fields) position() (x, y, z float64, err error) {
	if x, err = f.coord("x"); err != nil {
		return
	}
	if y, err = f.coord("y"); err != nil {
		return
	}
	z, err = f.coord("z")
	return
}

func decodePlayer(f fields) (PlayerRecord, error) {
	id, err := f.id()
	if err != nil {
		return PlayerRecord{}, err
	}
	x, y, z, err := f.position()
	if err != nil {
		return PlayerRecord{}, fmt.Errorf("%s: %w", id, err)
	}
	return PlayerRecord{
		ID:        id,
		Name:      f.str("name"),
		X:         x,
		Y:         y,
		Z:         z,
		RotationY: f.num("rotationY"),
		RotationZ: f.num("rotationZ"),
	}, nil
}

func decodeObject(f fields) (SpaceObjectRecord, error) {
	id, err := f.id()
	if err != nil {
		return SpaceObjectRecord{}, err
	}
	x, y, z, err := f.position()
	if err != nil {
		return SpaceObjectRecord{}, fmt.Errorf("%s: %w", id, err)
	}
	return SpaceObjectRecord{
		ID:                id,
		Type:              f.str("type"),
		Name:              f.str("name"),
		X:                 x,
		Y:                 y,
		Z:                 z,
		Radius:            f.num("radius"),
		Color:             f.str("color"),
		RotationSpeed:     f.num("rotationSpeed"),
		Opacity:           f.num("opacity"),
		Emission:          f.flag("emission"),
		EmissionColor:     f.str("emissionColor"),
		EmissionIntensity: f.num("emissionIntensity"),
		HasRings:          f.flag("hasRings"),
		RingsInnerRadius:  f.num("ringsInnerRadius"),
		RingsOuterRadius:  f.num("ringsOuterRadius"),
		RingsColor:        f.str("ringsColor"),
	}, nil
}
