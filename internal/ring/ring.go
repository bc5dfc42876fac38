// Package ring implements a fixed capacity FIFO that never blocks the
// writer. When the queue is full, the oldest entry is discarded to make
// room for the new one.
package ring

import (
	"context"
	"sync"
)

// Queue is a bounded FIFO with "newest survives" eviction. It is safe
// for concurrent use; the usual arrangement is one producer and one
// consumer living on different execution contexts.
type Queue[T any] struct {
	mutex   sync.Mutex
	buf     []T
	head    int // index of the oldest entry
	size    int
	dropped uint64
	readyCh chan struct{}
}

// New creates a Queue holding at most capacity entries. A capacity
// smaller than 1 is treated as 1.
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		buf:     make([]T, capacity),
		readyCh: make(chan struct{}, 1),
	}
}

// Push appends v. If the queue is full exactly one oldest entry is
// discarded first, and true is returned.
func (q *Queue[T]) Push(v T) bool {
	_, evicted := q.Put(v)
	return evicted
}

// Put is like Push but also hands back the entry that was discarded to
// make room for v.
func (q *Queue[T]) Put(v T) (old T, evicted bool) {
	q.mutex.Lock()
	if q.size == len(q.buf) {
		var zero T
		old = q.buf[q.head]
		q.buf[q.head] = zero
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		q.dropped++
		evicted = true
	}
	q.buf[(q.head+q.size)%len(q.buf)] = v
	q.size++
	q.mutex.Unlock()

	// wake up a waiting consumer, but never wait for one
	select {
	case q.readyCh <- struct{}{}:
	default:
	}
	return old, evicted
}

// TryPop removes and returns the oldest entry, if any.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

// Pop removes and returns the oldest entry, waiting until one is
// available or ctx is done.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		if v, ok := q.TryPop(); ok {
			return v, nil
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.readyCh:
		}
	}
}

// Ready returns a channel that receives a value after a Push. It may
// fire spuriously; always follow up with TryPop.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.readyCh
}

// Len returns the number of queued entries.
func (q *Queue[T]) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.size
}

// Cap returns the capacity given to New.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// Dropped returns the number of entries evicted since creation.
func (q *Queue[T]) Dropped() uint64 {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.dropped
}

// Drain removes and returns every queued entry, oldest first.
func (q *Queue[T]) Drain() []T {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	out := make([]T, 0, q.size)
	var zero T
	for q.size > 0 {
		out = append(out, q.buf[q.head])
		q.buf[q.head] = zero
		q.head = (q.head + 1) % len(q.buf)
		q.size--
	}
	return out
}
