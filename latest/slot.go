// Package latest provides a single slot channel where every publish
// overwrites the previous value. Readers only ever see the most recent
// value; there is no history.
package latest

import (
	"context"
	"sync"
)

// Slot holds the most recently published value of type T. It is safe
// for concurrent use by one or more publishers and any number of readers.
// Published values should be copies; the slot does not clone them.
type Slot[T any] struct {
	mutex     sync.Mutex
	value     T
	version   uint64
	changedCh chan struct{}
}

// New creates an empty Slot.
func New[T any]() *Slot[T] {
	return &Slot[T]{
		changedCh: make(chan struct{}),
	}
}

// Publish stores v, replacing any value not yet seen by readers, and
// wakes every waiting reader. It never blocks on readers.
func (s *Slot[T]) Publish(v T) {
	s.mutex.Lock()
	s.value = v
	s.version++
	ch := s.changedCh
	s.changedCh = make(chan struct{})
	s.mutex.Unlock()

	close(ch)
}

// Load returns the current value and its version. Version 0 means
// nothing has been published yet.
func (s *Slot[T]) Load() (T, uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.value, s.version
}

// Wait blocks until a value newer than since has been published, and
// returns it with its version. Pass 0 to wait for the first value.
func (s *Slot[T]) Wait(ctx context.Context, since uint64) (T, uint64, error) {
	for {
		s.mutex.Lock()
		v, version, ch := s.value, s.version, s.changedCh
		s.mutex.Unlock()

		if version > since {
			return v, version, nil
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, since, ctx.Err()
		case <-ch:
		}
	}
}
