package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lily58/keystatus"
	"github.com/lily58/keystatus/bridge"
	"github.com/lily58/keystatus/config"
	"github.com/lily58/keystatus/display"
	"github.com/lily58/keystatus/keymap"
	"github.com/lily58/keystatus/matrix"
	"github.com/lily58/keystatus/sig"
	"github.com/pkg/errors"
)

func main() {
	os.Exit(_main(os.Args[1:], os.Stdout, os.Stderr))
}

func _main(argv []string, stdout, stderr io.Writer) int {
	var opts CLIOptions
	args, err := opts.parse(argv)
	if err != nil {
		fmt.Fprintf(stderr, "keystatus: %s\n", err)
		return 1
	}

	if opts.OptHelp {
		stdout.Write(opts.help())
		return 0
	}

	if opts.OptVersion {
		fmt.Fprintf(stdout, "keystatus %s\n", keystatus.Version())
		return 0
	}

	if err := run(opts, args, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "keystatus: %s\n", err)
		return 1
	}
	return 0
}

func loadConfig(opts CLIOptions) (config.Config, error) {
	var cfg config.Config
	if err := cfg.Init(); err != nil {
		return cfg, errors.Wrap(err, "failed to initialize config")
	}

	rcfile := opts.OptRcfile
	if rcfile == "" {
		if file, err := config.LocateRcfile(config.DefaultConfigLocator); err == nil {
			rcfile = file
		}
	}
	if rcfile != "" {
		if err := cfg.ReadFilename(rcfile); err != nil {
			return cfg, errors.Wrapf(err, "failed to read config %s", rcfile)
		}
	}

	opts.apply(&cfg)
	return cfg, cfg.Validate()
}

func loadKeymap(cfg config.Config) (*keymap.Keymap, error) {
	if cfg.Keymap == "" {
		return keymap.Lily58(), nil
	}
	return keymap.ReadFile(cfg.Keymap)
}

func run(opts CLIOptions, args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	km, err := loadKeymap(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to load keymap")
	}

	if opts.OptDumpKeymap {
		return km.WriteTOML(stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var script *matrix.Script
	if len(args) == 1 {
		script, err = matrix.ReadScriptFile(args[0])
		if err != nil {
			return err
		}
	}

	var (
		producer bridge.Producer
		panel    display.Display
	)
	if opts.OptHeadless {
		producer = script
		panel = display.NewText(stdout)
	} else {
		screen, err := tcell.NewScreen()
		if err != nil {
			return errors.Wrap(err, "failed to create tcell screen")
		}
		if err := screen.Init(); err != nil {
			return errors.Wrap(err, "failed to initialize tcell screen")
		}
		defer screen.Fini()

		caption := cfg.Display.Caption
		if caption == "" {
			caption = "keystatus " + keystatus.Version() + " (Esc to quit)"
		}
		panel = display.NewTerminal(screen, caption)
		if script != nil {
			producer = script
		} else {
			producer = matrix.NewTerminal(screen, km, cancel)
		}
	}

	d, err := keystatus.New(
		keystatus.WithConfig(cfg),
		keystatus.WithKeymap(km),
		keystatus.WithProducer(producer),
		keystatus.WithDisplay(panel),
		keystatus.WithErrWriter(stderr),
	)
	if err != nil {
		return err
	}

	if script != nil {
		go func() {
			select {
			case <-ctx.Done():
				return
			case <-script.Done():
			}
			time.Sleep(opts.OptLinger)
			cancel()
		}()
	}

	sigH := sig.New(sig.ReceivedHandlerFunc(func(s os.Signal) bool {
		if sig.Terminating(s) {
			return true
		}
		// anything else asks for a report
		if err := d.Heatmap().WriteReport(stderr, 10); err != nil {
			fmt.Fprintf(stderr, "keystatus: %s\n", err)
		}
		return false
	}), handledSignals...)
	go sigH.Loop(ctx, cancel)

	if err := d.Run(ctx); err != nil {
		return err
	}

	if opts.OptReport {
		return d.Heatmap().WriteReport(stdout, 0)
	}
	return nil
}
