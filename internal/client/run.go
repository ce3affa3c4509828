package client

import (
	"context"
	"time"

	"starlane.io/internal/input"
	"starlane.io/internal/transport/ws"
)

// Pilot turns raw input events into one intent per tick. *input.Sampler is
// the interactive Pilot.
type Pilot interface {
	Apply(ev input.Event)
	Sample() input.Intent
}

type Sources struct {
	Transport <-chan ws.Event
	Input     <-chan input.Event
	Pilot     Pilot
	Tick      time.Duration
}

// Run drives the context until ctx is done or the transport channel closes.
// Transport events, input events and ticks are handled one at a time, so no
// handler ever observes another mid-flight.
func (c *Context) Run(ctx context.Context, src Sources) error {
	if src.Tick <= 0 {
		src.Tick = time.Second / 60
	}
	ticker := time.NewTicker(src.Tick)
	defer ticker.Stop()

	transport := src.Transport
	in := src.Input
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-transport:
			if !ok {
				return nil
			}
			c.HandleEvent(ev)

		case ev, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			if src.Pilot != nil {
				src.Pilot.Apply(ev)
			}

		case <-ticker.C:
			var intent input.Intent
			if src.Pilot != nil {
				intent = src.Pilot.Sample()
			}
			c.Tick(intent)
		}
	}
}
