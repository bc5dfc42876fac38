package keymap

import "strconv"

// keyRunes maps HID key names to the character they produce unshifted on
// a US layout. Keys with no printable form map to 0.
var keyRunes = map[string]rune{
	"Escape":         0,
	"Tab":            '\t',
	"Enter":          '\r',
	"Space":          ' ',
	"Backspace":      0,
	"Delete":         0,
	"Insert":         0,
	"Home":           0,
	"End":            0,
	"PageUp":         0,
	"PageDown":       0,
	"Up":             0,
	"Down":           0,
	"Left":           0,
	"Right":          0,
	"CapsLock":       0,
	"PrintScreen":    0,
	"Minus":          '-',
	"Equal":          '=',
	"LeftBracket":    '[',
	"RightBracket":   ']',
	"Backslash":      '\\',
	"Semicolon":      ';',
	"Quote":          '\'',
	"Grave":          '`',
	"Comma":          ',',
	"Dot":            '.',
	"Slash":          '/',
	"LShift":         0,
	"RShift":         0,
	"LCtrl":          0,
	"RCtrl":          0,
	"LAlt":           0,
	"RAlt":           0,
	"LGui":           0,
	"RGui":           0,
	"MediaPlayPause": 0,
	"MediaNextTrack": 0,
	"MediaPrevTrack": 0,
	"AudioVolUp":     0,
	"AudioVolDown":   0,
	"AudioMute":      0,
}

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		keyRunes[string(c)] = c - 'A' + 'a'
	}
	for d := '0'; d <= '9'; d++ {
		keyRunes["Kc"+string(d)] = d
	}
	for i := 1; i <= 24; i++ {
		keyRunes["F"+strconv.Itoa(i)] = 0
	}
}

func isKeyName(s string) bool {
	_, ok := keyRunes[s]
	return ok
}

// Rune returns the character a plain key action types, if it types one.
// Shifted keys and non-key actions report false.
func (a Action) Rune() (rune, bool) {
	if a.Kind != KindKey {
		return 0, false
	}
	r, ok := keyRunes[a.Name]
	if !ok || r == 0 {
		return 0, false
	}
	return r, true
}
