package mock

import (
	"sync"

	"github.com/lily58/keystatus/display"
)

// Display records every call and keeps a copy of each flushed frame.
// Failures can be queued per operation with Fail.
type Display struct {
	*Interceptor
	mutex   sync.Mutex
	drawn   *display.Frame
	flushed []*display.Frame
	fail    map[string][]error
	flushCh chan struct{}
}

func NewDisplay() *Display {
	return &Display{
		Interceptor: NewInterceptor(),
		fail:        make(map[string][]error),
		flushCh:     make(chan struct{}, 1024),
	}
}

// Fail makes the next calls of op return errs, one per call.
func (d *Display) Fail(op string, errs ...error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.fail[op] = append(d.fail[op], errs...)
}

func (d *Display) next(op string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	errs := d.fail[op]
	if len(errs) == 0 {
		return nil
	}
	d.fail[op] = errs[1:]
	return errs[0]
}

func (d *Display) Init() error {
	d.Record("Init", []interface{}{})
	return d.next("Init")
}

func (d *Display) Clear() error {
	d.Record("Clear", []interface{}{})
	return d.next("Clear")
}

func (d *Display) Draw(f *display.Frame) error {
	d.Record("Draw", []interface{}{f.String()})
	if err := d.next("Draw"); err != nil {
		return err
	}
	d.mutex.Lock()
	d.drawn = f.Clone()
	d.mutex.Unlock()
	return nil
}

func (d *Display) Flush() error {
	d.Record("Flush", []interface{}{})
	if err := d.next("Flush"); err != nil {
		return err
	}
	d.mutex.Lock()
	d.flushed = append(d.flushed, d.drawn)
	d.mutex.Unlock()
	select {
	case d.flushCh <- struct{}{}:
	default:
	}
	return nil
}

func (d *Display) Close() error {
	d.Record("Close", []interface{}{})
	return d.next("Close")
}

// Flushed returns a channel that receives once per successful flush.
func (d *Display) Flushed() <-chan struct{} {
	return d.flushCh
}

// Frames returns the frames flushed so far.
func (d *Display) Frames() []*display.Frame {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]*display.Frame(nil), d.flushed...)
}
