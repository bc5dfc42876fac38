package display_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/lily58/keystatus/display"
	"github.com/lily58/keystatus/internal/mock"
	"github.com/lily58/keystatus/latest"
	"github.com/lily58/keystatus/status"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type rendererFixture struct {
	display  *mock.Display
	slot     *latest.Slot[status.UIState]
	ticks    chan time.Time
	renderer *display.Renderer
	errBuf   *bytes.Buffer
	done     chan error
	cancel   func()
}

func newRendererFixture(t *testing.T, options ...display.RendererOption) *rendererFixture {
	t.Helper()
	fx := &rendererFixture{
		display: mock.NewDisplay(),
		slot:    latest.New[status.UIState](),
		ticks:   make(chan time.Time),
		errBuf:  &bytes.Buffer{},
		done:    make(chan error, 1),
	}
	options = append([]display.RendererOption{
		display.WithTicks(fx.ticks),
		display.WithErrWriter(fx.errBuf),
	}, options...)
	fx.renderer = display.NewRenderer(fx.display, fx.slot, options...)
	return fx
}

func (fx *rendererFixture) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	fx.cancel = cancel
	t.Cleanup(cancel)
	go func() { fx.done <- fx.renderer.Run(ctx) }()
}

func (fx *rendererFixture) tick(t *testing.T) {
	t.Helper()
	select {
	case fx.ticks <- time.Now():
	case err := <-fx.done:
		t.Fatalf("renderer exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("renderer did not accept a tick")
	}
}

func (fx *rendererFixture) waitFlush(t *testing.T) {
	t.Helper()
	select {
	case <-fx.display.Flushed():
	case <-time.After(5 * time.Second):
		t.Fatal("no frame was flushed")
	}
}

func (fx *rendererFixture) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-fx.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("renderer did not stop")
	}
	return nil
}

func expectedFrame(st status.UIState) *display.Frame {
	f := display.NewFrame(display.DefaultWidth, display.DefaultHeight, display.DefaultRotation)
	display.Render(f, st)
	return f
}

func TestRendererShowsLatestAtTick(t *testing.T) {
	fx := newRendererFixture(t)
	fx.start(t)

	fx.slot.Publish(status.UIState{Layer: 0, KeyEventCount: 1})
	fx.slot.Publish(status.UIState{Layer: 1, KeyEventCount: 2})
	last := status.UIState{Layer: 2, KeyEventCount: 3}
	fx.slot.Publish(last)

	fx.tick(t)
	fx.waitFlush(t)

	frames := fx.display.Frames()
	require.Len(t, frames, 1)
	require.True(t, frames[0].Equal(expectedFrame(last)), "got\n%s", frames[0])

	fx.cancel()
	require.NoError(t, fx.wait(t))
	require.Equal(t, 1, fx.display.Count("Init"))
	require.Equal(t, 1, fx.display.Count("Close"))
}

func TestRendererWaitsForFirstSnapshot(t *testing.T) {
	fx := newRendererFixture(t)
	fx.start(t)

	fx.tick(t)
	require.Never(t, func() bool {
		return fx.display.Count("Flush") > 0
	}, 100*time.Millisecond, 10*time.Millisecond)

	fx.slot.Publish(status.UIState{Layer: 1})
	fx.waitFlush(t)
	require.True(t, fx.display.Frames()[0].Equal(expectedFrame(status.UIState{Layer: 1})))
}

func TestRendererRedrawsLastSeenEveryTick(t *testing.T) {
	fx := newRendererFixture(t)
	fx.start(t)

	st := status.UIState{Layer: 1, KeyEventCount: 7}
	fx.slot.Publish(st)
	for i := 0; i < 3; i++ {
		fx.tick(t)
		fx.waitFlush(t)
	}

	frames := fx.display.Frames()
	require.Len(t, frames, 3)
	for _, f := range frames {
		require.True(t, f.Equal(expectedFrame(st)))
	}
	require.Equal(t, 3, fx.display.Count("Clear"))
	require.Equal(t, 3, fx.display.Count("Draw"))
}

func TestRendererSkipsTransientFailure(t *testing.T) {
	fx := newRendererFixture(t)
	fx.display.Fail("Flush", display.Transient(errors.New("i2c: nak")))
	fx.start(t)

	fx.slot.Publish(status.UIState{KeyEventCount: 1})
	fx.tick(t)
	fx.tick(t)
	fx.waitFlush(t)

	require.Eventually(t, func() bool {
		return fx.renderer.Frames() == 1
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, uint64(1), fx.renderer.Skipped())

	// the renderer is still alive
	fx.tick(t)
	fx.waitFlush(t)
	require.Contains(t, fx.errBuf.String(), "recovered after 1 failed frames")
}

func TestRendererStopsOnPermanentFailure(t *testing.T) {
	fx := newRendererFixture(t)
	fx.display.Fail("Draw", display.ErrDetached)
	fx.start(t)

	fx.slot.Publish(status.UIState{})
	fx.tick(t)

	err := fx.wait(t)
	require.Error(t, err)
	require.ErrorIs(t, err, display.ErrDetached)
	require.False(t, display.IsTransient(err))
	require.Equal(t, 1, fx.display.Count("Close"))
	require.Zero(t, fx.renderer.Frames())
}

func TestRendererGivesUpAfterConsecutiveFailures(t *testing.T) {
	nak := display.Transient(errors.New("i2c: nak"))
	fx := newRendererFixture(t, display.WithMaxConsecutiveFailures(3))
	fx.display.Fail("Clear", nak, nak, nak)
	fx.start(t)

	fx.slot.Publish(status.UIState{})
	fx.tick(t)
	fx.tick(t)
	fx.tick(t)

	err := fx.wait(t)
	require.Error(t, err)
	require.Contains(t, err.Error(), "3 times in a row")
	require.Equal(t, uint64(3), fx.renderer.Skipped())
}

func TestRendererInitFailure(t *testing.T) {
	fx := newRendererFixture(t)
	fx.display.Fail("Init", errors.New("no panel"))
	fx.start(t)

	err := fx.wait(t)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to initialize display")
	require.Zero(t, fx.display.Count("Close"))
}

func TestRendererStopsOnCancelWhileWaiting(t *testing.T) {
	fx := newRendererFixture(t)
	fx.start(t)

	fx.tick(t)
	fx.cancel()
	require.NoError(t, fx.wait(t))
}

func TestRendererOwnTicker(t *testing.T) {
	d := mock.NewDisplay()
	slot := latest.New[status.UIState]()
	r := display.NewRenderer(d, slot, display.WithRate(200))
	slot.Publish(status.UIState{Layer: 3})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return r.Frames() >= 3
	}, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
