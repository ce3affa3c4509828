package term

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"starlane.io/internal/input"
)

// DefaultHoldWindow is how long a key counts as held after its last press or
// autorepeat. Terminals report no key-up, so releases are inferred. A real
// double tap inside the window is indistinguishable from autorepeat and the
// second tap of an edge control (toggle, scan) is lost; tuning's
// input.hold_window_ms trades that against autorepeat gaps.
const DefaultHoldWindow = 550 * time.Millisecond

// Source polls a tcell screen and translates its events into input events.
// Release events for keys are synthesized after the hold window lapses.
type Source struct {
	screen tcell.Screen
	keys   KeyMap
	hold   time.Duration

	out  chan input.Event
	quit chan struct{}

	mu       sync.Mutex
	timers   map[input.Control]*time.Timer
	mouse    bool
	quitOnce sync.Once
	stopped  bool
}

func NewSource(screen tcell.Screen, keys KeyMap, hold time.Duration) *Source {
	if hold <= 0 {
		hold = DefaultHoldWindow
	}
	return &Source{
		screen: screen,
		keys:   keys,
		hold:   hold,
		out:    make(chan input.Event, 256),
		quit:   make(chan struct{}),
		timers: map[input.Control]*time.Timer{},
	}
}

func (s *Source) Events() <-chan input.Event { return s.out }

// Quit is closed when the pilot asks to leave (Esc, Ctrl-C or q).
func (s *Source) Quit() <-chan struct{} { return s.quit }

// Run polls until the screen is finalized. Call it on its own goroutine.
func (s *Source) Run() {
	w, h := s.screen.Size()
	s.push(input.Event{Kind: input.EventResize, X: float64(w), Y: float64(h)})
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			s.stop()
			return
		}
		s.Handle(ev)
	}
}

// Handle translates one tcell event.
func (s *Source) Handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if isQuit(ev) {
			s.quitOnce.Do(func() { close(s.quit) })
			return
		}
		c, ok := s.keys.Lookup(ev)
		if !ok {
			return
		}
		s.push(input.Event{Kind: input.EventPress, Control: c})
		s.armRelease(c)

	case *tcell.EventMouse:
		x, y := ev.Position()
		down := ev.Buttons()&tcell.Button1 != 0
		s.mu.Lock()
		was := s.mouse
		s.mouse = down
		s.mu.Unlock()
		switch {
		case down && !was:
			s.push(input.Event{Kind: input.EventPointerDown, X: float64(x), Y: float64(y)})
		case down:
			s.push(input.Event{Kind: input.EventPointerMove, X: float64(x), Y: float64(y)})
		case was:
			s.push(input.Event{Kind: input.EventPointerUp, X: float64(x), Y: float64(y)})
		}

	case *tcell.EventResize:
		w, h := ev.Size()
		s.push(input.Event{Kind: input.EventResize, X: float64(w), Y: float64(h)})
	}
}

func (s *Source) armRelease(c input.Control) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.timers[c]; ok {
		t.Reset(s.hold)
		return
	}
	s.timers[c] = time.AfterFunc(s.hold, func() {
		s.mu.Lock()
		delete(s.timers, c)
		s.mu.Unlock()
		s.push(input.Event{Kind: input.EventRelease, Control: c})
	})
}

func (s *Source) push(ev input.Event) {
	select {
	case s.out <- ev:
	default:
		// Consumer stalled; drop rather than block the poller.
	}
}

func (s *Source) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for c, t := range s.timers {
		t.Stop()
		delete(s.timers, c)
	}
}
