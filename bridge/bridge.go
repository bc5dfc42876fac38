// Package bridge implements the bounded event bridge that sits between
// the key matrix scanner and its consumer. Every event is returned to the
// real consumer unchanged, and a copy is offered to an observer through a
// fixed capacity queue that drops its oldest entry instead of blocking.
package bridge

import (
	"context"

	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/lily58/keystatus/event"
	"github.com/lily58/keystatus/internal/ring"
)

// DefaultDepth is the observer queue depth used when none is given.
const DefaultDepth = 16

// Producer is the raw key transition source. NextEvent blocks until the
// next transition is available. The only error it may return is the
// error of ctx.
type Producer interface {
	NextEvent(context.Context) (event.KeyEvent, error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func(context.Context) (event.KeyEvent, error)

// NextEvent calls the underlying function.
func (f ProducerFunc) NextEvent(ctx context.Context) (event.KeyEvent, error) {
	return f(ctx)
}

// Bridge wraps a Producer. It is itself a Producer, so it can be dropped
// in front of whatever consumed the original producer.
type Bridge struct {
	producer Producer
	observer *ring.Queue[event.KeyEvent]
}

// New creates a Bridge around p. depth is the observer queue capacity;
// values smaller than 1 select DefaultDepth.
func New(p Producer, depth int) *Bridge {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &Bridge{
		producer: p,
		observer: ring.New[event.KeyEvent](depth),
	}
}

// NextEvent returns the next event from the wrapped producer. It never
// waits on the observer side.
func (b *Bridge) NextEvent(ctx context.Context) (event.KeyEvent, error) {
	ev, err := b.producer.NextEvent(ctx)
	if err != nil {
		return ev, err
	}

	if b.observer.Push(ev) && pdebug.Enabled {
		pdebug.Printf("bridge: observer queue full, evicted oldest event (dropped=%d)", b.observer.Dropped())
	}
	return ev, nil
}

// Observer returns the consumer side of the observer queue.
func (b *Bridge) Observer() *ring.Queue[event.KeyEvent] {
	return b.observer
}

// Dropped returns how many events the observer never saw.
func (b *Bridge) Dropped() uint64 {
	return b.observer.Dropped()
}
