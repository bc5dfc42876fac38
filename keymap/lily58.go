package keymap

import (
	"fmt"
	"strings"
)

// Lily58 matrix dimensions. The peripheral half is wired as a vertical
// extension of the central half, so both halves share the 6 columns.
const (
	Lily58Rows   = 10
	Lily58Cols   = 6
	Lily58Layers = 3
)

// lily58Aliases are the three character names used in the layout text
// below. Two character names are padded with '_'.
var lily58Aliases = map[string]string{
	"___": "Trns", "XXX": "No",
	"AMP": "S(Kc7)", "AST": "S(Kc8)", "AT_": "S(Kc2)", "BNG": "S(Kc1)",
	"CRC": "S(Kc6)", "DLR": "S(Kc4)", "HSH": "S(Kc3)", "LPR": "S(Kc9)",
	"PCT": "S(Kc5)", "RPR": "S(Kc0)", "GRV": "S(Grave)", "LCB": "S(LeftBracket)",
	"RCB": "S(RightBracket)", "PIP": "S(Backslash)", "PLS": "S(Equal)",
	"BLO": "Bootloader", "BSL": "Backslash", "BSP": "Backspace", "BTK": "Grave",
	"COM": "Comma", "DEL": "Delete", "DOT": "Dot", "DWN": "Down", "END": "End",
	"ENT": "Enter", "EQL": "Equal", "ESC": "Escape", "HOM": "Home", "LAL": "LAlt",
	"LCT": "LCtrl", "LFT": "Left", "LGU": "LGui", "LSB": "LeftBracket",
	"LSH": "LShift", "MNS": "Minus", "NXT": "MediaNextTrack", "PGD": "PageDown",
	"PGU": "PageUp", "PLY": "MediaPlayPause", "PRT": "PrintScreen",
	"PRV": "MediaPrevTrack", "QUO": "Quote", "RGT": "Right", "RGU": "RGui",
	"RSB": "RightBracket", "RSH": "RShift", "SCN": "Semicolon", "SLS": "Slash",
	"SPC": "Space", "TAB": "Tab", "UP_": "Up", "VLD": "AudioVolDown",
	"VLU": "AudioVolUp",
	"LOW": "MO(1)", "RAI": "MO(2)",
}

var lily58Layers = [Lily58Layers]string{`
	ESC _1_ _2_ _3_ _4_ _5_         _6_ _7_ _8_ _9_ _0_ EQL
	TAB _Q_ _W_ _E_ _R_ _T_         _Y_ _U_ _I_ _O_ _P_ MNS
	LSH _A_ _S_ _D_ _F_ _G_         _H_ _J_ _K_ _L_ SCN QUO
	LCT _Z_ _X_ _C_ _V_ _B_ HOM PGU _N_ _M_ COM DOT SLS RSH
	            LAL LGU LOW SPC ENT RAI BSP RGU
`, `
	F01 F02 F03 F04 F05 F06         F07 F08 F09 F10 F11 F12
	TAB XXX XXX XXX XXX XXX         XXX XXX XXX XXX XXX MNS
	LSH BNG AT_ HSH DLR PCT         CRC AMP AST LPR RPR BSL
	LCT XXX XXX XXX XXX BTK END PGD GRV LSB RSB LCB RCB PIP
	            LAL LGU LOW BLO ENT RAI DEL RGU
`, `
	F13 F14 F15 F16 F17 F18         F19 F20 F21 F22 F23 F24
	___ PLS MNS AST SLS EQL         PLY PRV VLD VLU NXT PRT
	___ _1_ _2_ _3_ _4_ _5_         HOM LFT DWN UP_ RGT END
	___ _6_ _7_ _8_ _9_ _0_ DOT LPR _N_ _M_ COM DOT SLS RSH
	            ___ ___ ___ SPC ___ ___ BSP ___
`}

func lily58Alias(tok string) (Action, error) {
	if name, ok := lily58Aliases[tok]; ok {
		return Parse(name)
	}
	switch {
	case len(tok) == 3 && tok[0] == '_' && tok[2] == '_':
		c := tok[1]
		if c >= '0' && c <= '9' {
			return Parse("Kc" + string(c))
		}
		return Parse(string(c))
	case len(tok) == 3 && tok[0] == 'F':
		return Parse("F" + strings.TrimLeft(tok[1:], "0"))
	}
	return Action{}, fmt.Errorf("unknown Lily58 alias %q", tok)
}

// lily58Layer places the 58 physical keys, listed left to right and top
// to bottom as they sit on the board, onto the 10x6 matrix.
func lily58Layer(km *Keymap, layer int, text string) error {
	toks := strings.Fields(text)
	if len(toks) != 58 {
		return fmt.Errorf("layer %d: expected 58 keys, got %d", layer, len(toks))
	}

	// rows 0-4 are the left half, rows 5-9 the mirrored right half
	put := func(row, col int, tok string) error {
		a, err := lily58Alias(tok)
		if err != nil {
			return err
		}
		return km.Set(layer, row, col, a)
	}

	var err error
	for r := 0; r < 3 && err == nil; r++ {
		line := toks[r*12 : r*12+12]
		for i := 0; i < 6 && err == nil; i++ {
			err = put(r, i, line[i])
			if err == nil {
				err = put(r+5, 5-i, line[6+i])
			}
		}
	}
	if err != nil {
		return err
	}

	// fourth row carries two inner thumb keys between the halves
	line := toks[36:50]
	for i := 0; i < 6 && err == nil; i++ {
		err = put(3, i, line[i])
		if err == nil {
			err = put(8, 5-i, line[8+i])
		}
	}
	if err == nil {
		err = put(4, 5, line[6])
	}
	if err == nil {
		err = put(9, 5, line[7])
	}

	thumbs := toks[50:58]
	for i := 0; i < 4 && err == nil; i++ {
		err = put(4, 1+i, thumbs[i])
		if err == nil {
			err = put(9, 4-i, thumbs[4+i])
		}
	}
	return err
}

// Lily58 returns the bundled three layer Lily58 keymap: a QWERTY base
// layer, a symbol layer on MO(1) and a navigation/number layer on MO(2).
func Lily58() *Keymap {
	km, err := New(Lily58Layers, Lily58Rows, Lily58Cols)
	if err != nil {
		panic(err)
	}
	for l, text := range lily58Layers {
		if err := lily58Layer(km, l, text); err != nil {
			panic(err)
		}
	}
	return km
}
