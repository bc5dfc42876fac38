package hub

import (
	"context"

	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/lily58/keystatus/event"
	"github.com/lily58/keystatus/internal/ring"
	"github.com/pkg/errors"
)

// DefaultDepth is the per subscriber queue depth used when none is given.
const DefaultDepth = 8

// ErrClosed is returned by Subscription.Next once the Hub or the
// subscription has been closed and every queued event was consumed.
var ErrClosed = errors.New("hub: closed")

// New creates a new Hub. depth is the number of undelivered events each
// subscriber may hold; values smaller than 1 select DefaultDepth.
func New(depth int) *Hub {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &Hub{
		depth: depth,
		subs:  make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscriber. Events published before the call
// are not delivered to it. Subscribing to a closed Hub returns a
// subscription that is already closed.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		hub:    h,
		queue:  ring.New[event.ControllerEvent](h.depth),
		doneCh: make(chan struct{}),
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.closed {
		s.close()
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish delivers ev to every current subscriber without waiting for
// any of them.
func (h *Hub) Publish(ev event.ControllerEvent) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for s := range h.subs {
		s.push(ev)
	}
}

func (s *Subscription) push(ev event.ControllerEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	old, evicted := s.queue.Put(ev)
	if !evicted {
		return
	}
	s.lag.Fold(old)
	if pdebug.Enabled {
		pdebug.Printf("hub: subscriber lagging, folded %v (lagged=%d)", old, s.queue.Dropped())
	}
}

// pop returns the pending lag summary before any queued event, since
// everything it folded is older than what is still queued.
func (s *Subscription) pop() (event.ControllerEvent, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.lag.Empty() {
		lag := s.lag
		s.lag = event.Lagged{}
		return lag, true
	}
	return s.queue.TryPop()
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subs)
}

// Close closes every subscription. Subscribers may still consume the
// events that were queued before Close.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		s.close()
		delete(h.subs, s)
	}
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.doneCh) })
}

// Next waits for the next event. After the subscriber fell behind, the
// first event returned is an event.Lagged describing what was evicted.
// It returns ErrClosed once the subscription is closed and drained, or
// the context's error.
func (s *Subscription) Next(ctx context.Context) (event.ControllerEvent, error) {
	for {
		if ev, ok := s.pop(); ok {
			return ev, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.doneCh:
			// a publish may have raced with close
			if ev, ok := s.pop(); ok {
				return ev, nil
			}
			return nil, ErrClosed
		case <-s.queue.Ready():
		}
	}
}

// Lagged returns how many events this subscriber missed because it did
// not keep up.
func (s *Subscription) Lagged() uint64 {
	return s.queue.Dropped()
}

// Unsubscribe removes the subscription from its Hub. Pending events can
// still be read with Next.
func (s *Subscription) Unsubscribe() {
	s.hub.mutex.Lock()
	delete(s.hub.subs, s)
	s.hub.mutex.Unlock()
	s.close()
}
