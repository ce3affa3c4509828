package term

import (
	"github.com/gdamore/tcell/v2"

	"starlane.io/internal/input"
)

// KeyMap binds terminal keys to pilot controls. Runes are matched
// case-insensitively.
type KeyMap struct {
	Keys  map[tcell.Key]input.Control
	Runes map[rune]input.Control
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Keys: map[tcell.Key]input.Control{
			tcell.KeyUp:    input.ControlThrustUp,
			tcell.KeyDown:  input.ControlThrustDown,
			tcell.KeyLeft:  input.ControlYawLeft,
			tcell.KeyRight: input.ControlYawRight,
		},
		Runes: map[rune]input.Control{
			'w': input.ControlThrustUp,
			's': input.ControlThrustDown,
			' ': input.ControlBrake,
			't': input.ControlToggleTravel,
			'e': input.ControlScan,
			'a': input.ControlRollLeft,
			'd': input.ControlRollRight,
			'i': input.ControlPitchUp,
			'k': input.ControlPitchDown,
			'j': input.ControlYawLeft,
			'l': input.ControlYawRight,
		},
	}
}

func (m KeyMap) Lookup(ev *tcell.EventKey) (input.Control, bool) {
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		c, ok := m.Runes[r]
		return c, ok
	}
	c, ok := m.Keys[ev.Key()]
	return c, ok
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}
