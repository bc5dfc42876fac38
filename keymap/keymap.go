// Package keymap holds the static per-layer action table of the keyboard
// and the means to build one, either from the bundled Lily58 layout or
// from a TOML file.
package keymap

import "github.com/pkg/errors"

// MaxLayers is the largest number of layers a keymap may have. It is
// bounded by the width of the active layer bitmask.
const MaxLayers = 32

// Keymap is an immutable-after-construction table of actions indexed by
// (layer, row, col).
type Keymap struct {
	layers  int
	rows    int
	cols    int
	actions []Action
}

// New creates a keymap of the given dimensions filled with No actions.
func New(layers, rows, cols int) (*Keymap, error) {
	if layers < 1 || layers > MaxLayers {
		return nil, errors.Errorf("invalid layer count %d: must be between 1 and %d", layers, MaxLayers)
	}
	if rows < 1 || rows > 256 || cols < 1 || cols > 256 {
		return nil, errors.Errorf("invalid matrix size %dx%d", rows, cols)
	}
	return &Keymap{
		layers:  layers,
		rows:    rows,
		cols:    cols,
		actions: make([]Action, layers*rows*cols),
	}, nil
}

// Layers returns the number of layers.
func (km *Keymap) Layers() int { return km.layers }

// Rows returns the number of matrix rows.
func (km *Keymap) Rows() int { return km.rows }

// Cols returns the number of matrix columns.
func (km *Keymap) Cols() int { return km.cols }

func (km *Keymap) index(layer, row, col int) (int, bool) {
	if layer < 0 || layer >= km.layers || row < 0 || row >= km.rows || col < 0 || col >= km.cols {
		return 0, false
	}
	return (layer*km.rows+row)*km.cols + col, true
}

// Set stores a at (layer, row, col). Layer actions that refer to a layer
// the keymap does not have are rejected.
func (km *Keymap) Set(layer, row, col int, a Action) error {
	i, ok := km.index(layer, row, col)
	if !ok {
		return errors.Errorf("position (%d, %d, %d) is outside the %dx%dx%d keymap", layer, row, col, km.layers, km.rows, km.cols)
	}
	if a.IsLayerControl() && int(a.Layer) >= km.layers {
		return errors.Errorf("%s at (%d, %d, %d) refers to a layer the keymap does not have", a, layer, row, col)
	}
	km.actions[i] = a
	return nil
}

// Lookup returns the action stored at exactly (layer, row, col). Positions
// outside the table read as No.
func (km *Keymap) Lookup(layer int, row, col uint8) Action {
	i, ok := km.index(layer, int(row), int(col))
	if !ok {
		return No()
	}
	return km.actions[i]
}

// Layers is the view of the active layer set that Resolve needs.
type Layers interface {
	Has(uint8) bool
	Highest() uint8
}

// Resolve returns the action in effect at (row, col) given the active
// layers. The lookup starts at the highest active layer; Transparent
// entries defer to the next lower active layer, and finally to layer 0,
// which is always in effect. If every candidate is transparent,
// Transparent is returned.
func (km *Keymap) Resolve(active Layers, row, col uint8) Action {
	current := int(active.Highest())
	if current >= km.layers {
		current = km.layers - 1
	}
	for l := current; l >= 0; l-- {
		if l != 0 && l != current && !active.Has(uint8(l)) {
			continue
		}
		if a := km.Lookup(l, row, col); a.Kind != KindTransparent {
			return a
		}
	}
	return Transparent()
}

// Position returns the first matrix position on layer 0 whose key types r.
func (km *Keymap) Position(r rune) (uint8, uint8, bool) {
	for row := 0; row < km.rows; row++ {
		for col := 0; col < km.cols; col++ {
			if kr, ok := km.Lookup(0, uint8(row), uint8(col)).Rune(); ok && kr == r {
				return uint8(row), uint8(col), true
			}
		}
	}
	return 0, 0, false
}
