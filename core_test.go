package keystatus_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lily58/keystatus"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mutex sync.Mutex
	buf   bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.String()
}

func waitUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestCoreNonCriticalFailureIsContained(t *testing.T) {
	var errBuf syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := keystatus.NewCore(ctx, "display", &errBuf)
	require.Equal(t, "display", c.Name())

	siblingDone := make(chan struct{})
	c.Go("status", func(ctx context.Context) error {
		defer close(siblingDone)
		<-ctx.Done()
		return nil
	}, true)
	c.Go("renderer", func(context.Context) error {
		return errors.New("panel unplugged")
	}, false)

	require.Eventually(t, func() bool {
		return len(c.Failures()) == 1
	}, time.Second, 5*time.Millisecond)

	select {
	case <-siblingDone:
		t.Fatal("a non-critical failure must not cancel the core")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.NoError(t, c.Wait())
	require.Contains(t, errBuf.String(), "keystatus: display/renderer stopped: panel unplugged")
	require.Contains(t, c.Failures()[0].Error(), "display/renderer")
}

func TestCoreCriticalFailureCancels(t *testing.T) {
	c := keystatus.NewCore(context.Background(), "scan", &syncBuffer{})

	c.Go("idle", waitUntilDone, false)
	c.Go("keyboard", func(context.Context) error {
		return errors.New("matrix gone")
	}, true)

	done := make(chan error, 1)
	go func() { done <- c.Wait() }()

	select {
	case err := <-done:
		require.Error(t, err)
		require.Contains(t, err.Error(), "core scan failed")
		require.Contains(t, err.Error(), "matrix gone")
	case <-time.After(5 * time.Second):
		t.Fatal("critical failure did not stop the core")
	}
}

func TestCoreRecoversPanics(t *testing.T) {
	var errBuf syncBuffer
	c := keystatus.NewCore(context.Background(), "display", &errBuf)

	c.Go("heatmap", func(context.Context) error {
		panic("index out of range")
	}, false)

	c.Stop()
	require.NoError(t, c.Wait())
	out := errBuf.String()
	require.Contains(t, out, "keystatus: panic in display/heatmap: index out of range")
	require.Contains(t, out, "goroutine")
	require.Len(t, c.Failures(), 1)
}

func TestCoreCriticalPanicFails(t *testing.T) {
	var errBuf syncBuffer
	c := keystatus.NewCore(context.Background(), "scan", &errBuf)
	c.Go("keyboard", func(context.Context) error {
		panic("boom")
	}, true)

	err := c.Wait()
	require.Error(t, err)
	require.Contains(t, err.Error(), "panicked: boom")
}
