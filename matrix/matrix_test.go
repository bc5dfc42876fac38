package matrix_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lily58/keystatus/event"
	"github.com/lily58/keystatus/keymap"
	"github.com/lily58/keystatus/matrix"
	"github.com/stretchr/testify/require"
)

const demoScript = `
# hold lower, type twice, let go
press 4 3
tap 1 1
wait 1ms
tap 1 2
release 4 3
`

func collect(t *testing.T, ctx context.Context, src interface {
	NextEvent(context.Context) (event.KeyEvent, error)
}, n int) []event.KeyEvent {
	t.Helper()
	var list []event.KeyEvent
	for len(list) < n {
		ev, err := src.NextEvent(ctx)
		require.NoError(t, err)
		list = append(list, ev)
	}
	return list
}

func TestScriptReplays(t *testing.T) {
	s, err := matrix.ParseScript(strings.NewReader(demoScript))
	require.NoError(t, err)
	require.Equal(t, 6, s.Len())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := collect(t, ctx, s, 6)
	require.Equal(t, []event.KeyEvent{
		event.Press(4, 3),
		event.Press(1, 1),
		event.Release(1, 1),
		event.Press(1, 2),
		event.Release(1, 2),
		event.Release(4, 3),
	}, got)

	select {
	case <-s.Done():
	default:
		t.Fatal("script should be done")
	}
	require.Zero(t, s.Len())
}

func TestScriptBlocksWhenExhausted(t *testing.T) {
	s, err := matrix.ParseScript(strings.NewReader("tap 0 0\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	collect(t, ctx, s, 2)

	_, err = s.NextEvent(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScriptWaitHonorsContext(t *testing.T) {
	s, err := matrix.ParseScript(strings.NewReader("wait 1h\ntap 0 0\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.NextEvent(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEmptyScriptIsDone(t *testing.T) {
	s, err := matrix.ParseScript(strings.NewReader("# nothing\n\n"))
	require.NoError(t, err)
	select {
	case <-s.Done():
	default:
		t.Fatal("empty script should be done")
	}
}

func TestScriptErrors(t *testing.T) {
	for _, src := range []string{
		"press 1",
		"press a 1",
		"tap 1 256",
		"wait",
		"wait soon",
		"wait -1s",
		"jump 1 1",
	} {
		_, err := matrix.ParseScript(strings.NewReader("tap 0 0\n" + src + "\n"))
		require.Error(t, err, src)
		require.Contains(t, err.Error(), "line 2", src)
	}
}

func TestChan(t *testing.T) {
	ch := make(chan event.KeyEvent, 2)
	ch <- event.Press(0, 1)
	ch <- event.Release(0, 1)
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	src := matrix.Chan(ch)
	require.Equal(t, []event.KeyEvent{event.Press(0, 1), event.Release(0, 1)}, collect(t, ctx, src, 2))

	_, err := src.NextEvent(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func firstLayerKey(km *keymap.Keymap) (uint8, uint8) {
	for row := 0; row < km.Rows(); row++ {
		for col := 0; col < km.Cols(); col++ {
			if km.Lookup(0, uint8(row), uint8(col)).IsLayerControl() {
				return uint8(row), uint8(col)
			}
		}
	}
	panic("no layer key")
}

func TestTerminal(t *testing.T) {
	sim := tcell.NewSimulationScreen("")
	require.NoError(t, sim.Init())
	defer sim.Fini()

	km := keymap.Lily58()
	quit := make(chan struct{})
	src := matrix.NewTerminal(sim, km, func() { close(quit) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sim.InjectKey(tcell.KeyRune, 'Q', tcell.ModShift)
	require.Equal(t, []event.KeyEvent{event.Press(1, 1), event.Release(1, 1)}, collect(t, ctx, src, 2))

	// keys nothing types are skipped
	sim.InjectKey(tcell.KeyRune, '€', tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'p', tcell.ModNone)
	require.Equal(t, []event.KeyEvent{event.Press(6, 1), event.Release(6, 1)}, collect(t, ctx, src, 2))

	row, col := firstLayerKey(km)
	sim.InjectKey(tcell.KeyF1, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyF1, 0, tcell.ModNone)
	require.Equal(t, []event.KeyEvent{event.Press(row, col), event.Release(row, col)}, collect(t, ctx, src, 2))

	go src.NextEvent(ctx)
	sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	select {
	case <-quit:
	case <-time.After(5 * time.Second):
		t.Fatal("escape did not quit")
	}
}
