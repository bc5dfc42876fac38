package keymap

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// tomlKeymap is the on-disk representation:
//
//	rows = 10
//	cols = 6
//
//	[[layer]]
//	name = "base"
//	keys = [
//	  ["Escape", "Kc1", "Kc2", "Kc3", "Kc4", "Kc5"],
//	  ...
//	]
type tomlKeymap struct {
	Rows   int         `toml:"rows"`
	Cols   int         `toml:"cols"`
	Layers []tomlLayer `toml:"layer"`
}

type tomlLayer struct {
	Name string     `toml:"name,omitempty"`
	Keys [][]string `toml:"keys"`
}

// LoadTOML reads a keymap in TOML form from r.
func LoadTOML(r io.Reader) (*Keymap, error) {
	var raw tomlKeymap
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode TOML keymap")
	}

	if len(raw.Layers) == 0 {
		return nil, errors.New("keymap has no layers")
	}

	// rows and cols default to the shape of the first layer
	if raw.Rows == 0 {
		raw.Rows = len(raw.Layers[0].Keys)
	}
	if raw.Cols == 0 && raw.Rows > 0 && len(raw.Layers[0].Keys) > 0 {
		raw.Cols = len(raw.Layers[0].Keys[0])
	}

	km, err := New(len(raw.Layers), raw.Rows, raw.Cols)
	if err != nil {
		return nil, err
	}

	for l, layer := range raw.Layers {
		if len(layer.Keys) != raw.Rows {
			return nil, errors.Errorf("layer %d (%s): expected %d rows, got %d", l, layer.Name, raw.Rows, len(layer.Keys))
		}
		for row, keys := range layer.Keys {
			if len(keys) != raw.Cols {
				return nil, errors.Errorf("layer %d (%s) row %d: expected %d keys, got %d", l, layer.Name, row, raw.Cols, len(keys))
			}
			for col, name := range keys {
				a, err := Parse(name)
				if err != nil {
					return nil, errors.Wrapf(err, "layer %d (%s) row %d col %d", l, layer.Name, row, col)
				}
				if err := km.Set(l, row, col, a); err != nil {
					return nil, err
				}
			}
		}
	}
	return km, nil
}

// ReadFile loads a TOML keymap from filename.
func ReadFile(filename string) (*Keymap, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open keymap %s", filename)
	}
	defer f.Close()

	return LoadTOML(f)
}

// WriteTOML writes km in the form understood by LoadTOML.
func (km *Keymap) WriteTOML(w io.Writer) error {
	raw := tomlKeymap{
		Rows:   km.rows,
		Cols:   km.cols,
		Layers: make([]tomlLayer, km.layers),
	}
	for l := range raw.Layers {
		keys := make([][]string, km.rows)
		for row := range keys {
			keys[row] = make([]string, km.cols)
			for col := range keys[row] {
				keys[row][col] = km.Lookup(l, uint8(row), uint8(col)).String()
			}
		}
		raw.Layers[l] = tomlLayer{Keys: keys}
	}
	return errors.Wrap(toml.NewEncoder(w).Encode(raw), "failed to encode TOML keymap")
}
