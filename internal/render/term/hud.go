package term

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"starlane.io/internal/entity"
	"starlane.io/internal/flight"
	"starlane.io/internal/protocol"
)

const (
	// LabelRange is the distance inside which blips carry a name label.
	LabelRange = 500.0
	// scanFrames is how long a scan result stays on screen.
	scanFrames = 5 * 60
	// spinPerFrame converts a server rotationSpeed into glyph spin.
	spinPerFrame = 0.01
	// panelRows are kept clear of the radar at the bottom of the screen:
	// attitude, thrust and the help line.
	panelRows      = 3
	thrustBarWidth = 20
)

var (
	thrustLow     = tcell.GetColor("#00aaff")
	thrustMedium  = tcell.GetColor("#ffaa00")
	thrustHigh    = tcell.GetColor("#ff3300")
	thrustReverse = tcell.GetColor("#aa00ff")
)

// thrustColor picks the bar colour for a signed thrust level.
func thrustColor(thrust float64) tcell.Color {
	switch {
	case thrust < 0:
		return thrustReverse
	case thrust > 75:
		return thrustHigh
	case thrust > 40:
		return thrustMedium
	default:
		return thrustLow
	}
}

var spinGlyphs = []rune{'|', '/', '-', '\\'}

// blip is the HUD's render resource for one tracked entity.
type blip struct {
	key   entity.Key
	label string
	glyph rune
	style tcell.Style
	pos   mgl64.Vec3
	spin  float64
	spinV float64
}

// HUD draws a top-down radar and status panel on a tcell screen. It is a
// scene.Sink and is only touched from the client's logical thread.
type HUD struct {
	screen tcell.Screen

	blips map[entity.Key]*blip

	craft     flight.Pose
	hasCraft  bool
	connected bool
	hull      *float64
	mode      protocol.TravelMode
	speed     float64
	warp      bool

	ambient     bool
	nebulaColor tcell.Color
	density     float64

	scan      *protocol.ScannedObject
	scanShown bool
	scanLeft  int

	// Range is the radar radius in world units.
	Range float64
	// TickRate converts per-tick rotation rates to per-second readouts.
	TickRate float64
}

func NewHUD(screen tcell.Screen) *HUD {
	return &HUD{
		screen:   screen,
		blips:    map[entity.Key]*blip{},
		mode:     protocol.Subluminal,
		Range:    2 * LabelRange,
		TickRate: 60,
		craft:    flight.Pose{Orientation: mgl64.QuatIdent()},
	}
}

func (h *HUD) CreateEntity(e *entity.Entity) {
	b := &blip{key: e.Key, label: e.Label(), pos: e.Pose.Position}
	switch {
	case e.Player != nil:
		b.glyph = '^'
		b.style = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	case e.Object != nil:
		b.glyph, b.style = objectGlyph(e.Object)
		b.spinV = e.Object.RotationSpeed
	default:
		b.glyph = '?'
		b.style = tcell.StyleDefault
	}
	h.blips[e.Key] = b
	e.Handle = b
}

func (h *HUD) UpdateEntity(e *entity.Entity) {
	if b, ok := e.Handle.(*blip); ok {
		b.pos = e.Pose.Position
	}
}

func (h *HUD) DestroyEntity(e *entity.Entity) {
	delete(h.blips, e.Key)
	e.Handle = nil
}

func objectGlyph(o *entity.ObjectDescriptor) (rune, tcell.Style) {
	st := tcell.StyleDefault
	if c := tcell.GetColor(o.Color); c != tcell.ColorDefault && o.Color != "" {
		st = st.Foreground(c)
	}
	switch o.Type {
	case entity.ObjectStar:
		return '*', st.Bold(true)
	case entity.ObjectPlanet:
		if o.HasRings {
			return '@', st
		}
		return 'O', st
	case entity.ObjectMoon:
		return 'o', st
	case entity.ObjectAsteroid:
		return '|', st
	case entity.ObjectNebula:
		return '~', st.Dim(true)
	case entity.ObjectStation:
		return '#', st
	default:
		return '.', st
	}
}

func (h *HUD) UpdateCraft(p flight.Pose) {
	h.craft = p
	h.hasCraft = true
}

func (h *HUD) CreateAmbient(density float64, color string) {
	h.ambient = true
	h.RefreshAmbient(density, color)
}

func (h *HUD) RefreshAmbient(density float64, color string) {
	h.density = density
	h.nebulaColor = tcell.GetColor(color)
}

func (h *HUD) SetConnected(c bool) { h.connected = c }
func (h *HUD) SetHull(v float64)   { h.hull = &v }

func (h *HUD) SetTravelMode(m protocol.TravelMode, speed float64) {
	h.mode, h.speed = m, speed
	h.warp = m == protocol.Superluminal
}

func (h *HUD) ShowScan(obj *protocol.ScannedObject) {
	h.scan = obj
	h.scanShown = true
	h.scanLeft = scanFrames
}

// Present advances cosmetic state and redraws the screen.
func (h *HUD) Present() {
	for _, b := range h.blips {
		if b.spinV != 0 {
			b.spin = math.Mod(b.spin+b.spinV*spinPerFrame, 2*math.Pi)
			if b.spin < 0 {
				b.spin += 2 * math.Pi
			}
		}
	}
	if h.scanLeft > 0 {
		h.scanLeft--
		if h.scanLeft == 0 {
			h.scanShown = false
		}
	}
	h.draw()
}

// project maps a world position onto the radar relative to the craft. ok is
// false when the position is outside radar range.
func (h *HUD) project(pos mgl64.Vec3, w, hgt int) (x, y int, dist float64, ok bool) {
	rel := pos.Sub(h.craft.Position)
	dist = rel.Len()
	if dist > h.Range {
		return 0, 0, dist, false
	}
	local := h.craft.Orientation.Inverse().Rotate(rel)
	ahead, side := local[2], -local[0]

	radius := float64(min(w/2, hgt)) - 1
	if radius < 1 {
		return 0, 0, dist, false
	}
	cx, cy := w/2, hgt/2
	// Cells are roughly twice as tall as wide.
	x = cx + int(math.Round(side/h.Range*radius*2))
	y = cy - int(math.Round(ahead/h.Range*radius))
	if x < 0 || x >= w || y < 1 || y >= hgt-panelRows {
		return 0, 0, dist, false
	}
	return x, y, dist, true
}

func (h *HUD) draw() {
	s := h.screen
	s.Clear()
	w, hgt := s.Size()

	bg := tcell.StyleDefault
	if h.ambient && h.density > 0 {
		bg = bg.Foreground(h.nebulaColor).Dim(true)
		h.drawNebula(w, hgt, bg)
	}
	if h.warp {
		h.drawWarp(w, hgt)
	}

	keys := make([]entity.Key, 0, len(h.blips))
	for k := range h.blips {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].ID < keys[j].ID
	})
	for _, k := range keys {
		b := h.blips[k]
		x, y, dist, ok := h.project(b.pos, w, hgt)
		if !ok {
			continue
		}
		g := b.glyph
		if b.spinV != 0 && g == '|' {
			g = spinGlyphs[int(b.spin/(math.Pi/2))%len(spinGlyphs)]
		}
		s.SetContent(x, y, g, nil, b.style)
		if dist < LabelRange {
			st := b.style
			// Fade with distance.
			if dist > LabelRange/2 {
				st = st.Dim(true)
			}
			h.text(x+2, y, st, b.label)
		}
	}

	if h.hasCraft {
		s.SetContent(w/2, hgt/2, 'A', nil, tcell.StyleDefault.Bold(true))
	}
	h.drawStatus(hgt)
	if h.scanShown {
		h.drawScan(w)
	}
	s.Show()
}

func (h *HUD) drawNebula(w, hgt int, st tcell.Style) {
	step := int(math.Max(2, 12-h.density*10))
	for y := 1; y < hgt-1; y += step {
		for x := (y * 7) % step; x < w; x += step * 2 {
			h.screen.SetContent(x, y, '.', nil, st)
		}
	}
}

func (h *HUD) drawWarp(w, hgt int) {
	st := tcell.StyleDefault.Foreground(tcell.ColorWhite).Dim(true)
	cx, cy := w/2, hgt/2
	for i := 0; i < 16; i++ {
		a := float64(i) * math.Pi / 8
		for r := 6; r < 10; r++ {
			x := cx + int(math.Round(math.Cos(a)*float64(r)*2))
			y := cy + int(math.Round(math.Sin(a)*float64(r)))
			if x >= 0 && x < w && y > 0 && y < hgt-1 {
				h.screen.SetContent(x, y, '·', nil, st)
			}
		}
	}
}

func (h *HUD) drawStatus(hgt int) {
	link := "OFFLINE"
	linkStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)
	if h.connected {
		link = "ONLINE"
		linkStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	}
	h.text(0, 0, linkStyle, link)

	hull := "--"
	if h.hull != nil {
		hull = fmt.Sprintf("%.0f%%", *h.hull)
	}
	p := h.craft.Position
	top := fmt.Sprintf(" hull %s  mode %s x%.1f  tracked %d", hull, h.mode, h.speed, len(h.blips))
	h.text(len(link), 0, tcell.StyleDefault, top)

	bottom := fmt.Sprintf("pos (%.1f, %.1f, %.1f)  speed %.2f  [w/s] thrust [space] brake [t] travel [e] scan [q] quit",
		p[0], p[1], p[2], h.craft.Speed)
	h.text(0, hgt-1, tcell.StyleDefault.Dim(true), bottom)

	h.drawThrust(hgt - 2)
	h.drawAttitude(hgt - 3)
}

// drawThrust shows the signed throttle and a bar. Forward thrust fills from
// the left, reverse from the right.
func (h *HUD) drawThrust(y int) {
	thrust := math.Round(h.craft.Thrust)
	if thrust == 0 {
		thrust = 0 // clears -0
	}
	label := fmt.Sprintf("THR %+4.0f%% ", thrust)
	h.text(0, y, tcell.StyleDefault, label)

	x0 := len(label)
	h.screen.SetContent(x0, y, '[', nil, tcell.StyleDefault)
	fill := int(math.Round(math.Abs(thrust) / 100 * thrustBarWidth))
	bar := tcell.StyleDefault.Foreground(thrustColor(thrust))
	for i := 0; i < thrustBarWidth; i++ {
		on := i < fill
		if thrust < 0 {
			on = i >= thrustBarWidth-fill
		}
		r, st := ' ', tcell.StyleDefault
		if on {
			r, st = '=', bar
		}
		h.screen.SetContent(x0+1+i, y, r, nil, st)
	}
	h.screen.SetContent(x0+1+thrustBarWidth, y, ']', nil, tcell.StyleDefault)
	if thrust < 0 {
		h.text(x0+thrustBarWidth+3, y, bar, "REV")
	}
}

// drawAttitude shows orientation in degrees and rotation rates in degrees
// per second.
func (h *HUD) drawAttitude(y int) {
	a, r := h.craft.Angles, h.craft.Rates
	deg := func(rad float64) float64 { return math.Mod(rad*180/math.Pi, 360) }
	rate := func(rad float64) float64 { return rad * 180 / math.Pi * h.TickRate }
	line := fmt.Sprintf("PIT %5.1f° (%+5.1f°/s)  YAW %5.1f° (%+5.1f°/s)  ROL %5.1f° (%+5.1f°/s)",
		deg(a.Pitch), rate(r.Pitch), deg(a.Yaw), rate(r.Yaw), deg(a.Roll), rate(r.Roll))
	h.text(0, y, tcell.StyleDefault, line)
}

func (h *HUD) drawScan(w int) {
	lines := []string{"SCAN: nothing in range"}
	if o := h.scan; o != nil {
		lines = []string{
			fmt.Sprintf("SCAN: %s (%s)", o.Name, o.Type),
			fmt.Sprintf("distance %.2f units", o.Distance),
		}
		keys := make([]string, 0, len(o.Details))
		for k := range o.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", k, o.Details[k]))
		}
	}
	width := 0
	for _, l := range lines {
		width = max(width, len(l))
	}
	x := max(0, w-width-1)
	st := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	for i, l := range lines {
		h.text(x, 2+i, st, l)
	}
}

func (h *HUD) text(x, y int, st tcell.Style, s string) {
	w, _ := h.screen.Size()
	for _, r := range s {
		if x >= w {
			return
		}
		if x >= 0 {
			h.screen.SetContent(x, y, r, nil, st)
		}
		x++
	}
}

// Row returns the runes on row y, for tests and debugging.
func (h *HUD) Row(y int) string {
	w, _ := h.screen.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := h.screen.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
