package keystatus

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lestrrat-go/pdebug"
	"github.com/lily58/keystatus/bridge"
	"github.com/lily58/keystatus/config"
	"github.com/lily58/keystatus/display"
	"github.com/lily58/keystatus/heatmap"
	"github.com/lily58/keystatus/hub"
	"github.com/lily58/keystatus/keymap"
	"github.com/lily58/keystatus/latest"
	"github.com/lily58/keystatus/layer"
	"github.com/lily58/keystatus/status"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Version returns the release this binary was built from.
func Version() string {
	return version
}

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(d *Device) {
		d.config = cfg
	}
}

// WithKeymap overrides the keymap named in the config.
func WithKeymap(km *keymap.Keymap) Option {
	return func(d *Device) {
		d.keymap = km
	}
}

// WithProducer sets the source of raw matrix transitions.
func WithProducer(p bridge.Producer) Option {
	return func(d *Device) {
		d.producer = p
	}
}

// WithDisplay sets the panel. The default writes text frames to stdout.
func WithDisplay(disp display.Display) Option {
	return func(d *Device) {
		d.display = disp
	}
}

// WithErrWriter sets where diagnostics go. The default is os.Stderr.
func WithErrWriter(w io.Writer) Option {
	return func(d *Device) {
		d.errWriter = w
	}
}

// WithRendererOptions passes extra options to the renderer, after the
// ones derived from the config.
func WithRendererOptions(options ...display.RendererOption) Option {
	return func(d *Device) {
		d.rendererOptions = append(d.rendererOptions, options...)
	}
}

// New builds a Device. Every queue and slot is created here, once.
func New(options ...Option) (*Device, error) {
	d := &Device{errWriter: os.Stderr}
	if err := d.config.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize config")
	}
	for _, o := range options {
		o(d)
	}

	if err := d.config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if d.producer == nil {
		return nil, errors.New("a key event producer is required")
	}
	if d.keymap == nil {
		if d.config.Keymap == "" {
			d.keymap = keymap.Lily58()
		} else {
			km, err := keymap.ReadFile(d.config.Keymap)
			if err != nil {
				return nil, errors.Wrap(err, "failed to load keymap")
			}
			d.keymap = km
		}
	}
	if d.display == nil {
		d.display = display.NewText(os.Stdout)
	}

	layers := d.config.Layers
	if layers == 0 || layers > d.keymap.Layers() {
		layers = d.keymap.Layers()
	}

	d.bridge = bridge.New(d.producer, d.config.QueueDepth)
	d.hub = hub.New(d.config.SubscriberDepth)
	d.slot = latest.New[status.UIState]()
	d.heatmap = heatmap.New(heatmap.WithKeymap(d.keymap))
	d.keyboard = NewKeyboard(d.bridge, layer.New(d.keymap, layers), d.hub)
	d.aggregator = status.New(d.hub.Subscribe(), d.slot,
		status.WithLayers(layers),
		status.WithCountPolicy(d.config.Count),
	)

	cfg := d.config.Display
	rendererOptions := append([]display.RendererOption{
		display.WithRate(d.config.RenderHz),
		display.WithFrameSize(cfg.Width, cfg.Height, cfg.Rotation),
		display.WithMaxConsecutiveFailures(d.config.MaxDisplayFailures),
		display.WithErrWriter(d.errWriter),
	}, d.rendererOptions...)
	d.renderer = display.NewRenderer(d.display, d.slot, rendererOptions...)

	return d, nil
}

func (d *Device) Config() config.Config { return d.config }
func (d *Device) Keymap() *keymap.Keymap { return d.keymap }
func (d *Device) Bridge() *bridge.Bridge { return d.bridge }
func (d *Device) Hub() *hub.Hub { return d.hub }
func (d *Device) Status() *latest.Slot[status.UIState] { return d.slot }
func (d *Device) Heatmap() *heatmap.Heatmap { return d.heatmap }
func (d *Device) Keyboard() *Keyboard { return d.keyboard }
func (d *Device) Renderer() *display.Renderer { return d.renderer }

// Run starts the scan core with the keyboard pipeline and the display
// core with the aggregator, the renderer and the heatmap. It returns nil
// once ctx is done, or the keyboard's failure. Display side tasks that
// give up are reported and only take the display offline.
func (d *Device) Run(ctx context.Context) (err error) {
	if pdebug.Enabled {
		g := pdebug.Marker("Device.Run").BindError(&err)
		defer g.End()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer d.hub.Close()

	scan := NewCore(ctx, "scan", d.errWriter)
	scan.Go("keyboard", d.keyboard.Run, true)

	disp := NewCore(ctx, "display", d.errWriter)
	// nothing on the display core may take the scan core down with it
	disp.Go("status", d.aggregator.Run, false)
	disp.Go("renderer", d.renderer.Run, false)
	disp.Go("heatmap", func(ctx context.Context) error {
		return d.heatmap.Run(ctx, d.bridge.Observer())
	}, false)

	var g errgroup.Group
	for _, c := range []*Core{scan, disp} {
		g.Go(func() error {
			defer cancel()
			return c.Wait()
		})
	}
	err = g.Wait()

	if dropped := d.bridge.Dropped(); dropped > 0 {
		fmt.Fprintf(d.errWriter, "keystatus: observer dropped %d key events\n", dropped)
	}
	return err
}
