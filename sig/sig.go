// Package sig forwards OS signals to a handler until the handler asks to
// stop or the context is done.
package sig

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lestrrat-go/pdebug"
)

// ReceivedHandler handles one signal. Returning true ends the Loop.
type ReceivedHandler interface {
	Handle(os.Signal) bool
}

type ReceivedHandlerFunc func(os.Signal) bool

// Handle calls the underlying function with the received signal.
func (s ReceivedHandlerFunc) Handle(sig os.Signal) bool {
	return s(sig)
}

// Terminating reports whether sig normally ends the process.
func Terminating(sig os.Signal) bool {
	switch sig {
	case syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP:
		return true
	}
	return false
}

type Handler struct {
	onSignalReceived ReceivedHandler
	sigCh            chan os.Signal
}

// New creates a new signal handler that forwards the specified signals
// (default: SIGTERM, SIGINT, SIGHUP) to h.
func New(h ReceivedHandler, sigs ...os.Signal) *Handler {
	if len(sigs) == 0 {
		sigs = append(sigs, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	return &Handler{
		onSignalReceived: h,
		sigCh:            ch,
	}
}

// Loop delivers signals to the handler until it returns true, then
// calls cancel. It returns ctx.Err() if ctx ends first.
func (h *Handler) Loop(ctx context.Context, cancel func()) error {
	defer cancel()
	defer signal.Stop(h.sigCh)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-h.sigCh:
			if pdebug.Enabled {
				pdebug.Printf("received signal %s", sig)
			}
			if h.onSignalReceived.Handle(sig) {
				return nil
			}
		}
	}
}
