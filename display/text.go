package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Text writes frames to an io.Writer as ASCII art. Only frames that
// differ from the last one written are emitted, so a steady state does
// not flood the output at the refresh rate.
type Text struct {
	mutex   sync.Mutex
	out     io.Writer
	pending *Frame
	last    *Frame
	written int
}

// NewText creates a Text display writing to out.
func NewText(out io.Writer) *Text {
	return &Text{out: out}
}

func (t *Text) Init() error { return nil }

func (t *Text) Clear() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.pending = nil
	return nil
}

func (t *Text) Draw(f *Frame) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.pending = f.Clone()
	return nil
}

func (t *Text) Flush() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.pending == nil || t.pending.Equal(t.last) {
		return nil
	}
	if _, err := fmt.Fprintf(t.out, "frame %d\n%s\n", t.written+1, t.pending); err != nil {
		return errors.Wrap(err, "failed to write frame")
	}
	t.written++
	t.last = t.pending
	return nil
}

// Written returns how many distinct frames were emitted.
func (t *Text) Written() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.written
}

func (t *Text) Close() error { return nil }
