package matrix

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/lestrrat-go/pdebug"
	"github.com/lily58/keystatus/event"
	"github.com/lily58/keystatus/keymap"
)

type position struct {
	row, col uint8
}

// Terminal turns keys typed on a tcell screen into matrix transitions.
// A terminal only reports key presses, so each typed key becomes a press
// immediately followed by a release at the position that types it on the
// base layer. Function keys F1, F2 and so on latch the base layer's layer
// keys in order: the first F1 presses the first layer key, the next one
// releases it. Escape and Ctrl-C call the quit function.
type Terminal struct {
	screen    tcell.Screen
	keymap    *keymap.Keymap
	onQuit    func()
	latches   []position
	held      []bool
	errWriter io.Writer

	once    sync.Once
	evCh    chan tcell.Event
	pending []event.KeyEvent
}

func NewTerminal(screen tcell.Screen, km *keymap.Keymap, onQuit func()) *Terminal {
	t := &Terminal{
		screen:    screen,
		keymap:    km,
		onQuit:    onQuit,
		errWriter: os.Stderr,
	}
	for row := 0; row < km.Rows(); row++ {
		for col := 0; col < km.Cols(); col++ {
			if km.Lookup(0, uint8(row), uint8(col)).IsLayerControl() {
				t.latches = append(t.latches, position{uint8(row), uint8(col)})
			}
		}
	}
	t.held = make([]bool, len(t.latches))
	return t
}

// poll runs screen.PollEvent in its own goroutine so NextEvent can
// select on ctx. The channel is closed when the screen is finalized.
func (t *Terminal) poll() {
	t.evCh = make(chan tcell.Event)
	go func() {
		defer close(t.evCh)
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(t.errWriter, "keystatus: panic in PollEvent goroutine: %v\n%s", r, debug.Stack())
			}
		}()
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			t.evCh <- ev
		}
	}()
}

func (t *Terminal) NextEvent(ctx context.Context) (event.KeyEvent, error) {
	t.once.Do(t.poll)
	for {
		if len(t.pending) > 0 {
			ev := t.pending[0]
			t.pending = t.pending[1:]
			return ev, nil
		}

		select {
		case <-ctx.Done():
			return event.KeyEvent{}, ctx.Err()
		case ev, ok := <-t.evCh:
			if !ok {
				<-ctx.Done()
				return event.KeyEvent{}, ctx.Err()
			}
			if key, ok := ev.(*tcell.EventKey); ok {
				t.pending = t.translate(key)
			}
		}
	}
}

func (t *Terminal) translate(e *tcell.EventKey) []event.KeyEvent {
	var r rune
	switch e.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		if t.onQuit != nil {
			t.onQuit()
		}
		return nil
	case tcell.KeyEnter:
		r = '\r'
	case tcell.KeyTab:
		r = '\t'
	case tcell.KeyRune:
		r = unicode.ToLower(e.Rune())
	default:
		if i := int(e.Key() - tcell.KeyF1); i >= 0 && i < len(t.latches) {
			p := t.latches[i]
			t.held[i] = !t.held[i]
			return []event.KeyEvent{{Row: p.row, Col: p.col, Pressed: t.held[i]}}
		}
		return nil
	}

	row, col, ok := t.keymap.Position(r)
	if !ok {
		if pdebug.Enabled {
			pdebug.Printf("Terminal: no key types %q", r)
		}
		return nil
	}
	return []event.KeyEvent{event.Press(row, col), event.Release(row, col)}
}
