package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/lily58/keystatus/bridge"
	"github.com/lily58/keystatus/display"
	"github.com/lily58/keystatus/hub"
	"github.com/lily58/keystatus/status"
	"github.com/pkg/errors"
)

// DisplayConfig describes the status panel.
type DisplayConfig struct {
	Width    int              `json:"Width" yaml:"Width"`
	Height   int              `json:"Height" yaml:"Height"`
	Rotation display.Rotation `json:"Rotation" yaml:"Rotation"`
	// Caption is shown under the emulated panel in the terminal.
	Caption string `json:"Caption" yaml:"Caption"`
}

// Config holds all the data that can be configured in the
// external configuration file
type Config struct {
	// Layers is the number of layers in use. Zero means every layer
	// the keymap defines.
	Layers             int                `json:"Layers" yaml:"Layers"`
	QueueDepth         int                `json:"QueueDepth" yaml:"QueueDepth"`
	SubscriberDepth    int                `json:"SubscriberDepth" yaml:"SubscriberDepth"`
	RenderHz           int                `json:"RenderHz" yaml:"RenderHz"`
	Count              status.CountPolicy `json:"Count" yaml:"Count"`
	Display            DisplayConfig      `json:"Display" yaml:"Display"`
	MaxDisplayFailures int                `json:"MaxDisplayFailures" yaml:"MaxDisplayFailures"`

	// Keymap is a TOML keymap file. The built-in Lily58 layout is used
	// when empty.
	Keymap string `json:"Keymap" yaml:"Keymap"`
}

var homedirFunc = homedir

// Init initializes the Config with default values
func (c *Config) Init() error {
	*c = Config{
		QueueDepth:      bridge.DefaultDepth,
		SubscriberDepth: hub.DefaultDepth,
		RenderHz:        display.DefaultRate,
		Count:           status.CountAll,
		Display: DisplayConfig{
			Width:    display.DefaultWidth,
			Height:   display.DefaultHeight,
			Rotation: display.DefaultRotation,
		},
		MaxDisplayFailures: display.DefaultMaxConsecutiveFailures,
	}
	return nil
}

// ReadFilename reads the config from the given file, and
// does the appropriate processing, if any
func (c *Config) ReadFilename(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open file %s", filename)
	}
	defer f.Close()

	switch ext := filepath.Ext(filename); ext {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(f).Decode(c); err != nil {
			return errors.Wrap(err, "failed to decode YAML")
		}
	default:
		if err := json.NewDecoder(f).Decode(c); err != nil {
			return errors.Wrap(err, "failed to decode JSON")
		}
	}

	if c.Keymap != "" && !filepath.IsAbs(c.Keymap) {
		c.Keymap = filepath.Join(filepath.Dir(filename), c.Keymap)
	}

	return c.Validate()
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	switch {
	case c.Layers < 0 || c.Layers > 32:
		return errors.Errorf("invalid Layers %d: must be between 0 and 32", c.Layers)
	case c.QueueDepth < 1:
		return errors.Errorf("invalid QueueDepth %d: must be at least 1", c.QueueDepth)
	case c.SubscriberDepth < 1:
		return errors.Errorf("invalid SubscriberDepth %d: must be at least 1", c.SubscriberDepth)
	case c.RenderHz < 1:
		return errors.Errorf("invalid RenderHz %d: must be at least 1", c.RenderHz)
	case c.Display.Width < 1 || c.Display.Height < 1:
		return errors.Errorf("invalid Display size %dx%d", c.Display.Width, c.Display.Height)
	case !c.Display.Rotation.Valid():
		return errors.Errorf("invalid Display rotation %d: must be 0, 90, 180 or 270", c.Display.Rotation)
	case c.Count != status.CountAll && c.Count != status.CountPresses:
		return errors.Errorf("invalid Count %q", c.Count)
	}
	return nil
}

// Locator locates a config file in a given directory.
type Locator interface {
	Locate(string) (string, error)
}

// LocatorFunc is a function that implements Locator.
type LocatorFunc func(string) (string, error)

// Locate calls the underlying function.
func (f LocatorFunc) Locate(dir string) (string, error) {
	return f(dir)
}

var configFilenames = []string{"config.json", "config.yaml", "config.yml"}

// DefaultConfigLocator searches for a config file with one of the known
// filenames (config.json, config.yaml, config.yml) in the given directory.
var DefaultConfigLocator = LocatorFunc(func(dir string) (string, error) {
	for _, basename := range configFilenames {
		file := filepath.Join(dir, basename)
		if _, err := os.Stat(file); err == nil {
			return file, nil
		}
	}
	return "", errors.Errorf("config file not found in %s", dir)
})

// LocateRcfile attempts to find the config file in various locations
func LocateRcfile(locater Locator) (string, error) {
	// http://standards.freedesktop.org/basedir-spec/basedir-spec-latest.html
	//
	// Try in this order:
	//	  $XDG_CONFIG_HOME/keystatus/config.{json,yaml,yml}
	//    $XDG_CONFIG_DIR/keystatus/config.{json,yaml,yml} (where XDG_CONFIG_DIR is listed in $XDG_CONFIG_DIRS)
	//	  ~/.keystatus/config.{json,yaml,yml}

	home, uErr := homedirFunc()

	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		if file, err := locater.Locate(filepath.Join(dir, "keystatus")); err == nil {
			return file, nil
		}
	} else if uErr == nil { // silently ignore failure for homedir()
		if file, err := locater.Locate(filepath.Join(home, ".config", "keystatus")); err == nil {
			return file, nil
		}
	}

	if dirs := os.Getenv("XDG_CONFIG_DIRS"); dirs != "" {
		for dir := range strings.SplitSeq(dirs, fmt.Sprintf("%c", filepath.ListSeparator)) {
			if file, err := locater.Locate(filepath.Join(dir, "keystatus")); err == nil {
				return file, nil
			}
		}
	}

	if uErr == nil {
		if file, err := locater.Locate(filepath.Join(home, ".keystatus")); err == nil {
			return file, nil
		}
	}

	return "", errors.New("config file not found")
}
