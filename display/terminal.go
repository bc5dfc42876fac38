package display

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lestrrat-go/pdebug"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
)

// braille dot bits indexed by [y][x] inside a 2x4 cell
var brailleDots = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBase = 0x2800

// Terminal shows frames on a tcell screen, packing each 2x4 block of
// pixels into one braille cell inside a border, with an optional caption
// centered below. The screen must already be initialized; its lifetime
// belongs to the caller.
type Terminal struct {
	mutex   sync.Mutex
	screen  tcell.Screen
	caption string
	style   tcell.Style
	closed  bool
}

// NewTerminal creates a Terminal on screen. An empty caption shows none.
func NewTerminal(screen tcell.Screen, caption string) *Terminal {
	return &Terminal{
		screen:  screen,
		caption: caption,
		style:   tcell.StyleDefault,
	}
}

func (t *Terminal) Init() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.screen == nil {
		return errors.New("terminal display has no screen")
	}
	t.closed = false
	return nil
}

func (t *Terminal) Clear() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return ErrDetached
	}
	t.screen.Clear()
	return nil
}

func (t *Terminal) Draw(f *Frame) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return ErrDetached
	}

	tw, th := t.screen.Size()
	if tw < 1 || th < 1 {
		return Transient(errors.Errorf("terminal has no room (%dx%d)", tw, th))
	}

	w, h := f.Size()
	cols := (w + 1) / 2
	rows := (h + 3) / 4
	if pdebug.Enabled && (cols+2 > tw || rows+2 > th) {
		pdebug.Printf("Terminal.Draw: clipping %dx%d cells to %dx%d", cols+2, rows+2, tw, th)
	}

	t.box(cols+2, rows+2)
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			r := rune(brailleBase)
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if f.Pixel(cx*2+dx, cy*4+dy) {
						r |= brailleDots[dy][dx]
					}
				}
			}
			t.screen.SetContent(cx+1, cy+1, r, nil, t.style)
		}
	}
	t.drawCaption(cols+2, rows+2)
	return nil
}

func (t *Terminal) box(w, h int) {
	for x := 1; x < w-1; x++ {
		t.screen.SetContent(x, 0, tcell.RuneHLine, nil, t.style)
		t.screen.SetContent(x, h-1, tcell.RuneHLine, nil, t.style)
	}
	for y := 1; y < h-1; y++ {
		t.screen.SetContent(0, y, tcell.RuneVLine, nil, t.style)
		t.screen.SetContent(w-1, y, tcell.RuneVLine, nil, t.style)
	}
	t.screen.SetContent(0, 0, tcell.RuneULCorner, nil, t.style)
	t.screen.SetContent(w-1, 0, tcell.RuneURCorner, nil, t.style)
	t.screen.SetContent(0, h-1, tcell.RuneLLCorner, nil, t.style)
	t.screen.SetContent(w-1, h-1, tcell.RuneLRCorner, nil, t.style)
}

func (t *Terminal) drawCaption(w, y int) {
	if t.caption == "" {
		return
	}
	s := runewidth.Truncate(t.caption, w, "…")
	x := (w - runewidth.StringWidth(s)) / 2
	for _, r := range s {
		t.screen.SetContent(x, y, r, nil, t.style)
		x += runewidth.RuneWidth(r)
	}
}

func (t *Terminal) Flush() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return ErrDetached
	}
	t.screen.Show()
	return nil
}

// Close detaches the display. The screen itself is left running.
func (t *Terminal) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.closed = true
	return nil
}
