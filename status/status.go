// Package status maintains the {layer, key count} snapshot shown on the
// keyboard's display. The Aggregator is the only writer of that snapshot;
// it publishes a full copy into a latest.Slot after every relevant event.
package status

import (
	"context"
	"fmt"

	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/lily58/keystatus/event"
	"github.com/lily58/keystatus/latest"
	"github.com/pkg/errors"
)

// UIState is the snapshot rendered by the display.
type UIState struct {
	Layer         uint8
	KeyEventCount uint64
}

func (s UIState) String() string {
	return fmt.Sprintf("{layer:%d, key_event_count:%d}", s.Layer, s.KeyEventCount)
}

// CountPolicy selects which key edges are counted.
type CountPolicy string

const (
	CountAll     CountPolicy = "all"   // CountAll counts presses and releases
	CountPresses CountPolicy = "press" // CountPresses counts presses only
)

// UnmarshalText accepts "all" (or empty) and "press".
func (p *CountPolicy) UnmarshalText(b []byte) error {
	return p.UnmarshalFlag(string(b))
}

// UnmarshalFlag implements go-flags Unmarshaler.
func (p *CountPolicy) UnmarshalFlag(s string) error {
	switch s {
	case "", "all":
		*p = CountAll
	case "press":
		*p = CountPresses
	default:
		return errors.Errorf("invalid count policy %q: must be %q or %q", s, CountAll, CountPresses)
	}
	return nil
}

// Source yields semantic events. *hub.Subscription satisfies it.
type Source interface {
	Next(context.Context) (event.ControllerEvent, error)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLayers bounds the reported layer to [0, n). Layer events above the
// bound are clamped to n-1.
func WithLayers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 && n <= 256 {
			a.layers = n
		}
	}
}

// WithCountPolicy selects which key edges increment the count.
func WithCountPolicy(p CountPolicy) Option {
	return func(a *Aggregator) {
		if p != "" {
			a.policy = p
		}
	}
}

// Aggregator folds ControllerEvents into a UIState.
type Aggregator struct {
	src    Source
	slot   *latest.Slot[UIState]
	state  UIState
	layers int
	policy CountPolicy
}

// New creates an Aggregator reading from src and publishing into slot.
func New(src Source, slot *latest.Slot[UIState], options ...Option) *Aggregator {
	a := &Aggregator{
		src:    src,
		slot:   slot,
		layers: 256,
		policy: CountAll,
	}
	for _, o := range options {
		o(a)
	}
	return a
}

// State returns the aggregator's current snapshot.
func (a *Aggregator) State() UIState {
	return a.state
}

// Apply folds ev into the state and reports whether ev was relevant.
// Relevant events must be followed by exactly one publish.
func (a *Aggregator) Apply(ev event.ControllerEvent) bool {
	switch ev := ev.(type) {
	case event.Layer:
		a.setLayer(ev)
		return true
	case event.Key:
		if a.policy == CountPresses && !ev.Event.Pressed {
			return false
		}
		a.state.KeyEventCount++
		return true
	case event.Lagged:
		// the bus evicted these on our behalf; account for them as if
		// they had been delivered one by one
		n := ev.Keys
		if a.policy == CountPresses {
			n = ev.Presses
		}
		a.state.KeyEventCount += n
		if ev.HasLayer {
			a.setLayer(ev.Layer)
		}
		return n > 0 || ev.HasLayer
	}
	return false
}

func (a *Aggregator) setLayer(ev event.Layer) {
	l := int(ev)
	if l >= a.layers {
		l = a.layers - 1
	}
	a.state.Layer = uint8(l)
}

// Run consumes events until ctx is done or the source fails. Every
// relevant event produces one publish.
func (a *Aggregator) Run(ctx context.Context) error {
	if pdebug.Enabled {
		g := pdebug.Marker("status.Aggregator.Run")
		defer g.End()
	}

	for {
		ev, err := a.src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to read controller event")
		}

		if !a.Apply(ev) {
			continue
		}
		a.slot.Publish(a.state)
		if pdebug.Enabled {
			pdebug.Printf("status: %s after %v", a.state, ev)
		}
	}
}
