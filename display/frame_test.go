package display_test

import (
	"strings"
	"testing"

	"github.com/lily58/keystatus/display"
	"github.com/lily58/keystatus/status"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "1\n3", display.Format(status.UIState{Layer: 1, KeyEventCount: 3}))
	require.Equal(t, "0\n0", display.Format(status.UIState{}))
}

func TestFrameSize(t *testing.T) {
	f := display.NewFrame(128, 32, display.Rotate90)
	w, h := f.Size()
	require.Equal(t, 32, w)
	require.Equal(t, 128, h)

	pw, ph := f.PanelSize()
	require.Equal(t, 128, pw)
	require.Equal(t, 32, ph)

	f = display.NewFrame(128, 32, display.Rotate0)
	w, h = f.Size()
	require.Equal(t, 128, w)
	require.Equal(t, 32, h)
}

func TestRenderIsIdempotent(t *testing.T) {
	st := status.UIState{Layer: 2, KeyEventCount: 1234}
	a := display.NewFrame(128, 32, display.Rotate90)
	b := display.NewFrame(128, 32, display.Rotate90)
	display.Render(a, st)
	display.Render(b, st)
	require.True(t, a.Equal(b))

	// drawing over a dirty frame gives the same result
	display.Render(b, status.UIState{Layer: 1, KeyEventCount: 88888})
	display.Render(b, st)
	require.True(t, a.Equal(b), "stale pixels must not survive a render:\n%s", b)

	display.Render(b, status.UIState{Layer: 2, KeyEventCount: 1235})
	require.False(t, a.Equal(b))
}

func TestDrawTextStaysInGlyphBox(t *testing.T) {
	f := display.NewFrame(128, 32, display.Rotate90)
	display.Render(f, status.UIState{Layer: 0, KeyEventCount: 0})

	lit := 0
	w, h := f.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !f.Pixel(x, y) {
				continue
			}
			lit++
			require.Less(t, x, 7, "pixel (%d,%d) outside a single glyph column", x, y)
			require.Less(t, y, 26, "pixel (%d,%d) below the second line", x, y)
		}
	}
	require.NotZero(t, lit)
	require.True(t, strings.Contains(f.String(), "#"))
}

func TestBytesPageLayout(t *testing.T) {
	f := display.NewFrame(128, 32, display.Rotate0)
	require.Len(t, f.Bytes(), 128*32/8)

	f.Set(0, 0, true)
	f.Set(5, 9, true)
	buf := f.Bytes()
	require.Equal(t, byte(0x01), buf[0])
	require.Equal(t, byte(0x02), buf[128+5])

	f.Clear()
	for _, b := range f.Bytes() {
		require.Zero(t, b)
	}
}

func TestBytesRotation(t *testing.T) {
	f := display.NewFrame(128, 32, display.Rotate90)
	f.Set(0, 0, true)
	buf := f.Bytes()
	require.Equal(t, byte(0x01), buf[127])

	f = display.NewFrame(128, 32, display.Rotate180)
	f.Set(0, 0, true)
	buf = f.Bytes()
	require.Equal(t, byte(0x80), buf[3*128+127])

	f = display.NewFrame(128, 32, display.Rotate270)
	f.Set(0, 0, true)
	buf = f.Bytes()
	require.Equal(t, byte(0x80), buf[3*128])
}

func TestSetOutOfBounds(t *testing.T) {
	f := display.NewFrame(8, 8, display.Rotate0)
	f.Set(-1, 0, true)
	f.Set(8, 8, true)
	require.False(t, f.Pixel(-1, 0))
	require.False(t, f.Pixel(8, 8))
	require.Equal(t, strings.Repeat("........\n", 8), f.String())
}

func TestRotationUnmarshalFlag(t *testing.T) {
	var r display.Rotation
	require.NoError(t, r.UnmarshalFlag("270"))
	require.Equal(t, display.Rotate270, r)
	require.Error(t, r.UnmarshalFlag("45"))
	require.Error(t, r.UnmarshalFlag("up"))
	require.True(t, display.Rotate90.Valid())
	require.False(t, display.Rotation(45).Valid())
}

func TestIsTransient(t *testing.T) {
	nak := errors.New("i2c: nak")
	require.True(t, display.IsTransient(display.Transient(nak)))
	require.True(t, display.IsTransient(errors.Wrap(display.Transient(nak), "failed to flush")))
	require.ErrorIs(t, display.Transient(nak), nak)
	require.False(t, display.IsTransient(nak))
	require.False(t, display.IsTransient(display.ErrDetached))
	require.False(t, display.IsTransient(nil))
	require.Nil(t, display.Transient(nil))
}
