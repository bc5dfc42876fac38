package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/pdebug"
	"github.com/lily58/keystatus/latest"
	"github.com/lily58/keystatus/status"
	"github.com/pkg/errors"
)

const (
	DefaultRate                   = 30
	DefaultWidth                  = 128
	DefaultHeight                 = 32
	DefaultRotation               = Rotate90
	DefaultMaxConsecutiveFailures = 5
)

// Renderer redraws the panel from the latest status snapshot at a fixed
// rate. It never consumes a history of snapshots; each tick shows
// whatever was published last.
type Renderer struct {
	display     Display
	slot        *latest.Slot[status.UIState]
	frame       *Frame
	interval    time.Duration
	ticks       <-chan time.Time
	maxFailures int
	errWriter   io.Writer

	frames  atomic.Uint64
	skipped atomic.Uint64
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRate sets the refresh rate in frames per second.
func WithRate(hz int) RendererOption {
	return func(r *Renderer) {
		if hz > 0 {
			r.interval = time.Second / time.Duration(hz)
		}
	}
}

// WithTicks replaces the internal ticker. Each receive renders one frame.
func WithTicks(ch <-chan time.Time) RendererOption {
	return func(r *Renderer) {
		r.ticks = ch
	}
}

// WithFrameSize sets the panel geometry in physical pixels.
func WithFrameSize(width, height int, rotation Rotation) RendererOption {
	return func(r *Renderer) {
		r.frame = NewFrame(width, height, rotation)
	}
}

// WithMaxConsecutiveFailures sets how many transient failures in a row
// are tolerated before the renderer gives up. Zero or less means never.
func WithMaxConsecutiveFailures(n int) RendererOption {
	return func(r *Renderer) {
		r.maxFailures = n
	}
}

// WithErrWriter sets where failure and recovery notices go.
func WithErrWriter(w io.Writer) RendererOption {
	return func(r *Renderer) {
		r.errWriter = w
	}
}

// NewRenderer creates a Renderer drawing the snapshots published in slot
// on d.
func NewRenderer(d Display, slot *latest.Slot[status.UIState], options ...RendererOption) *Renderer {
	r := &Renderer{
		display:     d,
		slot:        slot,
		interval:    time.Second / DefaultRate,
		maxFailures: DefaultMaxConsecutiveFailures,
		errWriter:   os.Stderr,
	}
	for _, o := range options {
		o(r)
	}
	if r.frame == nil {
		r.frame = NewFrame(DefaultWidth, DefaultHeight, DefaultRotation)
	}
	return r
}

// Frames returns the number of frames flushed so far.
func (r *Renderer) Frames() uint64 {
	return r.frames.Load()
}

// Skipped returns the number of frames dropped by transient failures.
func (r *Renderer) Skipped() uint64 {
	return r.skipped.Load()
}

// Run initializes the display and renders until ctx is canceled, which
// returns nil, or until the display fails permanently. The first tick
// waits for the first published snapshot; later ticks reuse the last
// one seen when nothing new arrived.
func (r *Renderer) Run(ctx context.Context) (err error) {
	if pdebug.Enabled {
		g := pdebug.Marker("Renderer.Run (interval=%s)", r.interval)
		defer g.End()
	}

	if err := r.display.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize display")
	}
	defer func() {
		if cerr := r.display.Close(); cerr != nil && err == nil && ctx.Err() == nil {
			err = errors.Wrap(cerr, "failed to close display")
		}
	}()

	ticks := r.ticks
	if ticks == nil {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		ticks = t.C
	}

	var (
		state    status.UIState
		version  uint64
		failures int
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
		}

		if version == 0 {
			state, version, err = r.slot.Wait(ctx, 0)
			if err != nil {
				return nil
			}
		} else {
			state, version = r.slot.Load()
		}

		if err := r.RenderOnce(state); err != nil {
			if !IsTransient(err) {
				return errors.Wrap(err, "display failed permanently")
			}
			failures++
			r.skipped.Add(1)
			if pdebug.Enabled {
				pdebug.Printf("skipped frame %s: %s (%d in a row)", state, err, failures)
			}
			if r.maxFailures > 0 && failures >= r.maxFailures {
				return errors.Wrapf(err, "display failed %d times in a row", failures)
			}
			continue
		}
		if failures > 0 {
			fmt.Fprintf(r.errWriter, "keystatus: display recovered after %d failed frames\n", failures)
		}
		failures = 0
	}
}

// RenderOnce draws st and pushes it through a clear, draw and flush
// cycle. Rendering the same state twice yields the same frame.
func (r *Renderer) RenderOnce(st status.UIState) error {
	Render(r.frame, st)
	if err := r.display.Clear(); err != nil {
		return errors.Wrap(err, "failed to clear display")
	}
	if err := r.display.Draw(r.frame); err != nil {
		return errors.Wrap(err, "failed to draw frame")
	}
	if err := r.display.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush display")
	}
	r.frames.Add(1)
	return nil
}
