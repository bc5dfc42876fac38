// Package event contains the values that flow between the key scanning
// side and the status display side of the controller.
package event

import "fmt"

// KeyEvent is a single debounced transition of a key matrix switch.
// KeyEvents are created by the matrix scanner at scan rate and are never
// modified afterwards.
type KeyEvent struct {
	Row     uint8
	Col     uint8
	Pressed bool
}

// Press creates a KeyEvent for a switch closing at (row, col)
func Press(row, col uint8) KeyEvent {
	return KeyEvent{Row: row, Col: col, Pressed: true}
}

// Release creates a KeyEvent for a switch opening at (row, col)
func Release(row, col uint8) KeyEvent {
	return KeyEvent{Row: row, Col: col}
}

func (e KeyEvent) String() string {
	edge := "up"
	if e.Pressed {
		edge = "down"
	}
	return fmt.Sprintf("(%d,%d) %s", e.Row, e.Col, edge)
}

// Action is the resolved action attached to a Key notification. The
// concrete type is owned by the keymap, the bus only carries it.
type Action interface {
	fmt.Stringer
}

// ControllerEvent is a semantic notification produced by the input
// processing pipeline. The set of implementations is closed.
type ControllerEvent interface {
	controllerEvent()
}

// Layer reports that the highest active layer changed to the given index.
type Layer uint8

// Key reports activity on a key, together with the action it resolved to.
type Key struct {
	Event  KeyEvent
	Action Action
}

// Modifier reports a change of the HID modifier byte.
type Modifier uint8

// Battery reports the battery level in percent.
type Battery uint8

// Lagged summarizes events a slow subscriber lost to eviction. It is
// always delivered ahead of the events that were queued after them.
type Lagged struct {
	Keys     uint64 // evicted Key events
	Presses  uint64 // evicted Key events that were presses
	Layer    Layer  // newest evicted Layer, valid when HasLayer is set
	HasLayer bool
	Other    uint64 // evicted events of any other kind
}

// Fold adds ev to the summary.
func (l *Lagged) Fold(ev ControllerEvent) {
	switch ev := ev.(type) {
	case Key:
		l.Keys++
		if ev.Event.Pressed {
			l.Presses++
		}
	case Layer:
		l.Layer = ev
		l.HasLayer = true
	default:
		l.Other++
	}
}

// Empty reports whether nothing was folded.
func (l Lagged) Empty() bool {
	return l.Keys == 0 && !l.HasLayer && l.Other == 0
}

func (Layer) controllerEvent()    {}
func (Key) controllerEvent()      {}
func (Modifier) controllerEvent() {}
func (Battery) controllerEvent()  {}
func (Lagged) controllerEvent()   {}

func (l Layer) String() string {
	return fmt.Sprintf("Layer(%d)", uint8(l))
}

func (l Lagged) String() string {
	if l.HasLayer {
		return fmt.Sprintf("Lagged(keys=%d, %s)", l.Keys, l.Layer)
	}
	return fmt.Sprintf("Lagged(keys=%d)", l.Keys)
}

func (k Key) String() string {
	if k.Action == nil {
		return fmt.Sprintf("Key(%s)", k.Event)
	}
	return fmt.Sprintf("Key(%s, %s)", k.Event, k.Action)
}
