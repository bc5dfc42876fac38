package keymap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind describes what sort of action a keymap entry holds.
type Kind uint8

const (
	KindNo              Kind = iota // KindNo does nothing and stops layer fall-through
	KindTransparent                 // KindTransparent defers to the next lower active layer
	KindKey                         // KindKey sends a HID key code
	KindLayerOn                     // KindLayerOn activates a layer while held (MO)
	KindLayerOff                    // KindLayerOff deactivates a layer while held
	KindLayerToggle                 // KindLayerToggle flips a layer on release (TG)
	KindLayerToggleOnly             // KindLayerToggleOnly flips a layer and drops every other one (TO)
	KindOther                       // KindOther is anything else the firmware knows about
)

var kindNames = [...]string{
	KindNo:              "No",
	KindTransparent:     "Transparent",
	KindKey:             "Key",
	KindLayerOn:         "LayerOn",
	KindLayerOff:        "LayerOff",
	KindLayerToggle:     "LayerToggle",
	KindLayerToggleOnly: "LayerToggleOnly",
	KindOther:           "Other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Action is a single keymap entry. Actions are small comparable values.
type Action struct {
	Kind  Kind
	Layer uint8  // operand of the layer actions
	Name  string // key name for KindKey and KindOther
}

// No returns the action that does nothing.
func No() Action { return Action{Kind: KindNo} }

// Transparent returns the fall-through action.
func Transparent() Action { return Action{Kind: KindTransparent} }

// Key returns a key action for the named HID key. Shifted keys are
// written as S(name).
func Key(name string) Action { return Action{Kind: KindKey, Name: name} }

// LayerOn returns MO(l).
func LayerOn(l uint8) Action { return Action{Kind: KindLayerOn, Layer: l} }

// LayerOff returns the inverse of MO(l).
func LayerOff(l uint8) Action { return Action{Kind: KindLayerOff, Layer: l} }

// LayerToggle returns TG(l).
func LayerToggle(l uint8) Action { return Action{Kind: KindLayerToggle, Layer: l} }

// LayerToggleOnly returns TO(l).
func LayerToggleOnly(l uint8) Action { return Action{Kind: KindLayerToggleOnly, Layer: l} }

// Other returns an action this package does not model, such as Bootloader.
func Other(name string) Action { return Action{Kind: KindOther, Name: name} }

// IsLayerControl reports whether a changes the active layer set.
func (a Action) IsLayerControl() bool {
	switch a.Kind {
	case KindLayerOn, KindLayerOff, KindLayerToggle, KindLayerToggleOnly:
		return true
	}
	return false
}

func (a Action) String() string {
	switch a.Kind {
	case KindNo:
		return "No"
	case KindTransparent:
		return "Trns"
	case KindKey, KindOther:
		return a.Name
	case KindLayerOn:
		return fmt.Sprintf("MO(%d)", a.Layer)
	case KindLayerOff:
		return fmt.Sprintf("OFF(%d)", a.Layer)
	case KindLayerToggle:
		return fmt.Sprintf("TG(%d)", a.Layer)
	case KindLayerToggleOnly:
		return fmt.Sprintf("TO(%d)", a.Layer)
	}
	return a.Kind.String()
}

// MarshalText writes the action in the form accepted by Parse.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the action with Parse.
func (a *Action) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

var layerFuncs = map[string]func(uint8) Action{
	"MO":              LayerOn,
	"LayerOn":         LayerOn,
	"OFF":             LayerOff,
	"LayerOff":        LayerOff,
	"TG":              LayerToggle,
	"LayerToggle":     LayerToggle,
	"TO":              LayerToggleOnly,
	"TGO":             LayerToggleOnly,
	"LayerToggleOnly": LayerToggleOnly,
}

// names of actions the firmware supports but that never influence the
// status display
var otherNames = map[string]struct{}{
	"Bootloader":  {},
	"Reboot":      {},
	"ClearEeprom": {},
}

// Parse converts an action name such as "A", "S(Kc1)", "MO(1)" or "Trns"
// into an Action.
func Parse(s string) (Action, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "No", "XXX", "":
		return No(), nil
	case "Trns", "Transparent", "___", "_":
		return Transparent(), nil
	}

	if _, ok := otherNames[s]; ok {
		return Other(s), nil
	}

	if name, arg, ok := splitCall(s); ok {
		if fn, ok := layerFuncs[name]; ok {
			l, err := strconv.ParseUint(arg, 10, 8)
			if err != nil {
				return Action{}, errors.Wrapf(err, "invalid layer in %q", s)
			}
			if l >= MaxLayers {
				return Action{}, errors.Errorf("layer %d in %q exceeds the maximum of %d layers", l, s, MaxLayers)
			}
			return fn(uint8(l)), nil
		}

		if name == "S" {
			if !isKeyName(arg) {
				return Action{}, errors.Errorf("unknown key %q in %q", arg, s)
			}
			return Key("S(" + arg + ")"), nil
		}
		return Action{}, errors.Errorf("unknown action %q", s)
	}

	if !isKeyName(s) {
		return Action{}, errors.Errorf("unknown key %q", s)
	}
	return Key(s), nil
}

// MustParse is like Parse but panics on error. It is meant for static tables.
func MustParse(s string) Action {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func splitCall(s string) (string, string, bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	return s[:open], strings.TrimSpace(s[open+1 : len(s)-1]), true
}
