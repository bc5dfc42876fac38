package hub

import (
	"sync"

	"github.com/lily58/keystatus/event"
	"github.com/lily58/keystatus/internal/ring"
)

// Hub is the semantic event bus between the input processing pipeline
// and its observers. Every published ControllerEvent is delivered to
// every Subscription. Publishing never blocks: a subscriber that falls
// behind loses its oldest undelivered events, but what they carried is
// folded into an event.Lagged that reaches the subscriber first.
type Hub struct {
	mutex  sync.RWMutex
	depth  int
	subs   map[*Subscription]struct{}
	closed bool
}

// Subscription is one subscriber's view of the Hub. It is meant to be
// consumed by a single goroutine.
type Subscription struct {
	hub    *Hub
	mutex  sync.Mutex // orders eviction against delivery
	queue  *ring.Queue[event.ControllerEvent]
	lag    event.Lagged
	doneCh chan struct{}
	once   sync.Once
}
