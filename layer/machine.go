package layer

import (
	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/lily58/keystatus/event"
	"github.com/lily58/keystatus/keymap"
)

// Machine derives the active layer set from raw key transitions.
type Machine struct {
	keymap *keymap.Keymap
	count  int
	active Set
}

// New creates a Machine using km for action lookup. layers is the number
// of layers that may be activated; zero or anything above the keymap's
// own layer count means "all of the keymap's layers".
func New(km *keymap.Keymap, layers int) *Machine {
	if layers <= 0 || layers > km.Layers() {
		layers = km.Layers()
	}
	return &Machine{
		keymap: km,
		count:  layers,
	}
}

// Active returns the current set of active layers.
func (m *Machine) Active() Set {
	return m.active
}

// Current returns the highest active layer, or 0 when only the base
// layer is in effect.
func (m *Machine) Current() uint8 {
	return m.active.Highest()
}

// Reset deactivates every layer.
func (m *Machine) Reset() {
	m.active = 0
}

// Process resolves ev against the keymap, starting at the current layer,
// and applies it. It returns the resolved action, which callers may pass on, and
// whether the active set changed.
func (m *Machine) Process(ev event.KeyEvent) (keymap.Action, bool) {
	a := m.keymap.Resolve(m.active, ev.Row, ev.Col)
	if !a.IsLayerControl() {
		return a, false
	}

	if int(a.Layer) >= m.count {
		if pdebug.Enabled {
			pdebug.Printf("layer: ignoring %s at %s, only %d layers", a, ev, m.count)
		}
		return a, false
	}

	prev := m.active
	m.active = apply(m.active, a, ev.Pressed)
	if pdebug.Enabled && prev != m.active {
		pdebug.Printf("layer: %s %s: %s -> %s", a, ev, prev, m.active)
	}
	return a, prev != m.active
}

func apply(s Set, a keymap.Action, pressed bool) Set {
	switch a.Kind {
	case keymap.KindLayerOn:
		if pressed {
			return s.Union(a.Layer)
		}
		return s.Difference(a.Layer)
	case keymap.KindLayerOff:
		if pressed {
			return s.Difference(a.Layer)
		}
		return s.Union(a.Layer)
	case keymap.KindLayerToggle:
		if !pressed {
			return s.Toggle(a.Layer)
		}
	case keymap.KindLayerToggleOnly:
		if !pressed {
			return s.Only(a.Layer)
		}
	}
	return s
}
