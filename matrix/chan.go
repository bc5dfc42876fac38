package matrix

import (
	"context"

	"github.com/lily58/keystatus/event"
)

// Chan is a source backed by a channel. A closed channel behaves like an
// idle matrix.
type Chan <-chan event.KeyEvent

func (c Chan) NextEvent(ctx context.Context) (event.KeyEvent, error) {
	select {
	case <-ctx.Done():
		return event.KeyEvent{}, ctx.Err()
	case ev, ok := <-c:
		if ok {
			return ev, nil
		}
	}
	<-ctx.Done()
	return event.KeyEvent{}, ctx.Err()
}
