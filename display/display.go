// Package display renders the keyboard status onto a small monochrome
// panel. The Renderer polls the most recent status snapshot at a fixed
// rate, draws a fresh Frame on every tick and pushes it to a Display.
package display

import (
	"fmt"

	"github.com/lily58/keystatus/status"
	"github.com/pkg/errors"
)

// Display is the physical panel. Draw and Flush may fail; failures are
// classified with IsTransient.
type Display interface {
	Init() error
	Clear() error
	Draw(*Frame) error
	Flush() error
	Close() error
}

// ErrDetached is returned by displays that lost their device for good.
var ErrDetached = errors.New("display: device detached")

type temporary interface {
	Temporary() bool
}

type transientError struct {
	err error
}

func (e transientError) Error() string   { return e.err.Error() }
func (e transientError) Cause() error    { return e.err }
func (e transientError) Unwrap() error   { return e.err }
func (e transientError) Temporary() bool { return true }

// Transient marks err as a failure worth retrying on the next frame,
// such as a NAKed bus transfer.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// IsTransient reports whether err, or anything it wraps, is temporary.
// Everything else is treated as permanent.
func IsTransient(err error) bool {
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return false
}

// Format returns the text shown for a snapshot: the layer on the first
// line and the key event count on the second.
func Format(st status.UIState) string {
	return fmt.Sprintf("%d\n%d", st.Layer, st.KeyEventCount)
}

// Render clears f and draws st onto it.
func Render(f *Frame, st status.UIState) {
	f.Clear()
	f.DrawText(0, 0, Format(st))
}
