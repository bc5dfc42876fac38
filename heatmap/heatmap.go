// Package heatmap tallies key presses per matrix position from the
// bridge's observer queue.
package heatmap

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/google/btree"
	"github.com/lestrrat-go/pdebug"
	"github.com/lily58/keystatus/event"
	"github.com/lily58/keystatus/keymap"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
)

// Position is a matrix coordinate.
type Position struct {
	Row uint8
	Col uint8
}

func (p Position) String() string {
	return "(" + strconv.Itoa(int(p.Row)) + "," + strconv.Itoa(int(p.Col)) + ")"
}

func (p Position) less(o Position) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

// Tally is the press count for one position.
type Tally struct {
	Position
	Presses uint64
}

func byPosition(a, b Tally) bool {
	return a.less(b.Position)
}

// most pressed first, ties in position order
func byPresses(a, b Tally) bool {
	if a.Presses != b.Presses {
		return a.Presses > b.Presses
	}
	return a.less(b.Position)
}

// Queue is the consuming end of an event queue.
type Queue interface {
	Pop(context.Context) (event.KeyEvent, error)
}

// Heatmap keeps two ordered views of the same tallies: one by position
// and one by press count.
type Heatmap struct {
	mutex   sync.RWMutex
	keymap  *keymap.Keymap
	tallies *btree.BTreeG[Tally]
	ranking *btree.BTreeG[Tally]
	total   uint64
}

type Option func(*Heatmap)

// WithKeymap labels positions in reports with their base layer action.
func WithKeymap(km *keymap.Keymap) Option {
	return func(h *Heatmap) {
		h.keymap = km
	}
}

func New(options ...Option) *Heatmap {
	h := &Heatmap{}
	for _, o := range options {
		o(h)
	}
	h.Reset()
	return h
}

// Reset forgets every tally.
func (h *Heatmap) Reset() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.tallies = btree.NewG(32, byPosition)
	h.ranking = btree.NewG(32, byPresses)
	h.total = 0
}

// Record counts ev if it is a press. Releases are ignored.
func (h *Heatmap) Record(ev event.KeyEvent) {
	if !ev.Pressed {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	t := Tally{Position: Position{Row: ev.Row, Col: ev.Col}}
	if old, ok := h.tallies.Get(t); ok {
		h.ranking.Delete(old)
		t = old
	}
	t.Presses++
	h.tallies.ReplaceOrInsert(t)
	h.ranking.ReplaceOrInsert(t)
	h.total++
}

// Run records events from q until ctx is done.
func (h *Heatmap) Run(ctx context.Context, q Queue) error {
	if pdebug.Enabled {
		g := pdebug.Marker("Heatmap.Run")
		defer g.End()
	}
	for {
		ev, err := q.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to read observed key event")
		}
		h.Record(ev)
	}
}

// Total returns the number of presses recorded.
func (h *Heatmap) Total() uint64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.total
}

// Len returns the number of distinct positions pressed.
func (h *Heatmap) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.tallies.Len()
}

// Presses returns the tally for one position.
func (h *Heatmap) Presses(row, col uint8) uint64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	t, _ := h.tallies.Get(Tally{Position: Position{Row: row, Col: col}})
	return t.Presses
}

// Ascend calls fn for each tally in position order until fn returns
// false.
func (h *Heatmap) Ascend(fn func(Tally) bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	h.tallies.Ascend(fn)
}

// Top returns up to n tallies, most pressed first. n <= 0 returns all.
func (h *Heatmap) Top(n int) []Tally {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var list []Tally
	h.ranking.Ascend(func(t Tally) bool {
		list = append(list, t)
		return n <= 0 || len(list) < n
	})
	return list
}

func (h *Heatmap) label(p Position) string {
	if h.keymap == nil {
		return ""
	}
	return h.keymap.Lookup(0, p.Row, p.Col).String()
}

// WriteReport writes the top n positions as a table.
func (h *Heatmap) WriteReport(w io.Writer, n int) error {
	top := h.Top(n)
	if _, err := fmt.Fprintf(w, "%d presses over %d keys\n", h.Total(), h.Len()); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	for i, t := range top {
		key := runewidth.FillRight(h.label(t.Position), 8)
		if _, err := fmt.Fprintf(w, "%3d  %-7s %s %d\n", i+1, t.Position, key, t.Presses); err != nil {
			return errors.Wrap(err, "failed to write report")
		}
	}
	return nil
}
