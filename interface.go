// Package keystatus wires the keyboard status core: matrix transitions
// flow through the bridge into the layer machine on the scan core, and
// the resulting controller events are aggregated into a status snapshot
// that the display core renders.
package keystatus

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/lily58/keystatus/bridge"
	"github.com/lily58/keystatus/config"
	"github.com/lily58/keystatus/display"
	"github.com/lily58/keystatus/heatmap"
	"github.com/lily58/keystatus/hub"
	"github.com/lily58/keystatus/keymap"
	"github.com/lily58/keystatus/latest"
	"github.com/lily58/keystatus/layer"
	"github.com/lily58/keystatus/status"
	"golang.org/x/sync/errgroup"
)

const version = "v0.1.0"

// Task is one long running unit of work hosted by a Core. It must return
// when ctx is done.
type Task func(ctx context.Context) error

// Core is an execution context hosting cooperative tasks, standing in for
// one CPU core of the controller. Each task runs on its own goroutine
// locked to an OS thread.
type Core struct {
	name      string
	errWriter io.Writer
	ctx       context.Context
	cancel    context.CancelFunc
	group     *errgroup.Group

	mutex    sync.Mutex
	failures []error
}

// Keyboard is the input pipeline on the scan core. It reads transitions
// from the bridge, runs the layer machine and publishes the outcome.
type Keyboard struct {
	source  bridge.Producer
	machine *layer.Machine
	hub     *hub.Hub
	events  atomic.Uint64
}

// Device builds every channel and task of the controller at startup.
type Device struct {
	config          config.Config
	keymap          *keymap.Keymap
	producer        bridge.Producer
	display         display.Display
	errWriter       io.Writer
	rendererOptions []display.RendererOption

	bridge     *bridge.Bridge
	hub        *hub.Hub
	slot       *latest.Slot[status.UIState]
	heatmap    *heatmap.Heatmap
	keyboard   *Keyboard
	aggregator *status.Aggregator
	renderer   *display.Renderer
}

// Option configures a Device.
type Option func(*Device)
