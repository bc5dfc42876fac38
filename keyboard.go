package keystatus

import (
	"context"

	"github.com/lestrrat-go/pdebug"
	"github.com/lily58/keystatus/bridge"
	"github.com/lily58/keystatus/event"
	"github.com/lily58/keystatus/hub"
	"github.com/lily58/keystatus/layer"
	"github.com/pkg/errors"
)

// NewKeyboard creates a Keyboard that feeds transitions from source
// through machine and publishes the results on h.
func NewKeyboard(source bridge.Producer, machine *layer.Machine, h *hub.Hub) *Keyboard {
	return &Keyboard{
		source:  source,
		machine: machine,
		hub:     h,
	}
}

// Events returns how many transitions were processed.
func (k *Keyboard) Events() uint64 {
	return k.events.Load()
}

// Run processes transitions until ctx is done. Every transition is
// published as a Key event; a Layer event follows whenever the current
// layer changed. Publishing never waits on slow subscribers.
func (k *Keyboard) Run(ctx context.Context) error {
	if pdebug.Enabled {
		g := pdebug.Marker("Keyboard.Run")
		defer g.End()
	}

	for {
		ev, err := k.source.NextEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to read key event")
		}
		k.events.Add(1)

		before := k.machine.Current()
		action, _ := k.machine.Process(ev)
		k.hub.Publish(event.Key{Event: ev, Action: action})

		if current := k.machine.Current(); current != before {
			if pdebug.Enabled {
				pdebug.Printf("Keyboard: layer %d -> %d (active %s)", before, current, k.machine.Active())
			}
			k.hub.Publish(event.Layer(current))
		}
	}
}
