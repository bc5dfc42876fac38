package keystatus

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// NewCore creates a core whose tasks stop when ctx is done. Diagnostics
// go to errWriter, or os.Stderr when nil.
func NewCore(ctx context.Context, name string, errWriter io.Writer) *Core {
	if errWriter == nil {
		errWriter = os.Stderr
	}
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	return &Core{
		name:      name,
		errWriter: errWriter,
		ctx:       ctx,
		cancel:    cancel,
		group:     g,
	}
}

// Name returns the name given to NewCore.
func (c *Core) Name() string {
	return c.name
}

// Go starts task. When a critical task fails every task on the core is
// canceled and Wait returns the error. A failing non-critical task is
// reported and the others keep running. Panics count as failures.
func (c *Core) Go(name string, task Task, critical bool) {
	c.group.Go(func() (err error) {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if pdebug.Enabled {
			g := pdebug.Marker("Core %s: task %s", c.name, name).BindError(&err)
			defer g.End()
		}

		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(c.errWriter, "keystatus: panic in %s/%s: %v\n%s", c.name, name, r, debug.Stack())
				err = errors.Errorf("task %s/%s panicked: %v", c.name, name, r)
			}
			if err == nil || critical {
				return
			}
			fmt.Fprintf(c.errWriter, "keystatus: %s/%s stopped: %s\n", c.name, name, err)
			c.mutex.Lock()
			c.failures = append(c.failures, errors.Wrapf(err, "%s/%s", c.name, name))
			c.mutex.Unlock()
			err = nil
		}()

		return task(c.ctx)
	})
}

// Wait blocks until every task has returned and reports the first
// critical failure.
func (c *Core) Wait() error {
	defer c.cancel()
	if err := c.group.Wait(); err != nil {
		return errors.Wrapf(err, "core %s failed", c.name)
	}
	return nil
}

// Stop cancels every task on the core.
func (c *Core) Stop() {
	c.cancel()
}

// Failures returns the errors of non-critical tasks that stopped.
func (c *Core) Failures() []error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]error(nil), c.failures...)
}
