package main

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/lily58/keystatus/config"
	"github.com/lily58/keystatus/status"
	"github.com/pkg/errors"
)

type CLIOptions struct {
	OptHelp       bool               `short:"h" long:"help" description:"show this help message and exit"`
	OptRcfile     string             `long:"rcfile" description:"path to the settings file"`
	OptKeymap     string             `long:"keymap" description:"path to a TOML keymap (default: built-in Lily58)"`
	OptHeadless   bool               `long:"headless" description:"print frames to stdout instead of drawing in the terminal"`
	OptRate       int                `long:"hz" description:"display refresh rate"`
	OptQueueDepth int                `long:"queue-depth" description:"depth of the observer queue"`
	OptCount      status.CountPolicy `long:"count" description:"key edges to count: 'all' (default) or 'press'"`
	OptReport     bool               `long:"report" description:"print a key press report on exit"`
	OptLinger     time.Duration      `long:"linger" description:"keep running this long after SCRIPT ends" default:"250ms"`
	OptDumpKeymap bool               `long:"dump-keymap" description:"print the keymap as TOML and exit"`
	OptVersion    bool               `long:"version" description:"print the version and exit"`
}

func (options *CLIOptions) parse(s []string) ([]string, error) {
	p := flags.NewParser(options, flags.PrintErrors)
	args, err := p.ParseArgs(s)
	if err != nil {
		os.Stderr.Write(options.help())
		return nil, errors.Wrap(err, "invalid command line options")
	}

	if err := options.Validate(args); err != nil {
		return nil, errors.Wrap(err, "invalid command line arguments")
	}

	return args, nil
}

func (options CLIOptions) Validate(args []string) error {
	if len(args) > 1 {
		return errors.New("at most one SCRIPT may be given")
	}
	if options.OptHeadless && len(args) == 0 && !options.OptDumpKeymap {
		return errors.New("--headless needs a SCRIPT to replay")
	}
	if options.OptRate < 0 || options.OptQueueDepth < 0 {
		return errors.New("--hz and --queue-depth must be positive")
	}
	return nil
}

// apply overrides cfg with the options given on the command line.
func (options CLIOptions) apply(cfg *config.Config) {
	if options.OptKeymap != "" {
		cfg.Keymap = options.OptKeymap
	}
	if options.OptRate > 0 {
		cfg.RenderHz = options.OptRate
	}
	if options.OptQueueDepth > 0 {
		cfg.QueueDepth = options.OptQueueDepth
	}
	if options.OptCount != "" {
		cfg.Count = options.OptCount
	}
}

func (options CLIOptions) help() []byte {
	buf := bytes.Buffer{}

	fmt.Fprintf(&buf, `
Usage: keystatus [options] [SCRIPT]

Replays SCRIPT, or keys typed in the terminal, through the keyboard
status core and shows the status panel.

Options:
`)

	t := reflect.TypeOf(options)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag

		var o string
		if s := tag.Get("short"); s != "" {
			o = fmt.Sprintf("-%s, --%s", tag.Get("short"), tag.Get("long"))
		} else {
			o = fmt.Sprintf("--%s", tag.Get("long"))
		}

		fmt.Fprintf(
			&buf,
			"  %-21s %s\n",
			o,
			tag.Get("description"),
		)
	}

	return buf.Bytes()
}
