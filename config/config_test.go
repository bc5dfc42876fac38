package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/lily58/keystatus/display"
	"github.com/lily58/keystatus/status"
	"github.com/stretchr/testify/require"
)

func defaults(t *testing.T) Config {
	t.Helper()
	var cfg Config
	require.NoError(t, cfg.Init(), "Config.Init should succeed")
	return cfg
}

func TestInitDefaults(t *testing.T) {
	cfg := defaults(t)
	require.Equal(t, 16, cfg.QueueDepth)
	require.Equal(t, 8, cfg.SubscriberDepth)
	require.Equal(t, 30, cfg.RenderHz)
	require.Equal(t, status.CountAll, cfg.Count)
	require.Equal(t, DisplayConfig{Width: 128, Height: 32, Rotation: display.Rotate90}, cfg.Display)
	require.Equal(t, 5, cfg.MaxDisplayFailures)
	require.NoError(t, cfg.Validate())
}

func TestReadRC(t *testing.T) {
	txt := `
{
	"QueueDepth": 4,
	"Count": "press",
	"Display": {"Rotation": 0, "Caption": "lily58"}
}
`
	cfg := defaults(t)
	require.NoError(t, json.Unmarshal([]byte(txt), &cfg), "Unmarshalling config should succeed")

	expected := defaults(t)
	expected.QueueDepth = 4
	expected.Count = status.CountPresses
	expected.Display.Rotation = display.Rotate0
	expected.Display.Caption = "lily58"
	require.Equal(t, expected, cfg, "configuration matches expected")
}

func TestReadRCYAML(t *testing.T) {
	txt := `
Layers: 3
RenderHz: 10
Count: press
Display:
  Rotation: 180
  Caption: left half
`
	cfg := defaults(t)
	require.NoError(t, yaml.Unmarshal([]byte(txt), &cfg), "Unmarshalling YAML config should succeed")

	expected := defaults(t)
	expected.Layers = 3
	expected.RenderHz = 10
	expected.Count = status.CountPresses
	expected.Display.Rotation = display.Rotate180
	expected.Display.Caption = "left half"
	require.Equal(t, expected, cfg, "YAML configuration matches expected")
}

func TestReadFilename(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("Keymap: lily58.toml\nQueueDepth: 32\n"), 0o644))

	cfg := defaults(t)
	require.NoError(t, cfg.ReadFilename(file))
	require.Equal(t, 32, cfg.QueueDepth)
	require.Equal(t, filepath.Join(dir, "lily58.toml"), cfg.Keymap, "relative keymap resolves next to the config")

	bad := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"RenderHz": 0}`), 0o644))
	cfg = defaults(t)
	err := cfg.ReadFilename(bad)
	require.Error(t, err)
	require.Contains(t, err.Error(), "RenderHz")

	require.Error(t, cfg.ReadFilename(filepath.Join(dir, "missing.json")))
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"layers":     func(c *Config) { c.Layers = 33 },
		"depth":      func(c *Config) { c.QueueDepth = 0 },
		"subscriber": func(c *Config) { c.SubscriberDepth = -1 },
		"hz":         func(c *Config) { c.RenderHz = 0 },
		"size":       func(c *Config) { c.Display.Width = 0 },
		"rotation":   func(c *Config) { c.Display.Rotation = 45 },
		"count":      func(c *Config) { c.Count = "some" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := defaults(t)
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestCountPolicy(t *testing.T) {
	t.Run("invalid value via JSON", func(t *testing.T) {
		cfg := defaults(t)
		err := json.Unmarshal([]byte(`{"Count":"bogus"}`), &cfg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "bogus")
	})

	t.Run("invalid value via YAML", func(t *testing.T) {
		cfg := defaults(t)
		err := yaml.Unmarshal([]byte("Count: bogus"), &cfg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "bogus")
	})
}

func TestLocateRcfile(t *testing.T) {
	dir := t.TempDir()

	homedirFunc = func() (string, error) {
		return dir, nil
	}
	t.Cleanup(func() { homedirFunc = homedir })

	expected := []string{
		filepath.Join(dir, "keystatus"),
		filepath.Join(dir, "1", "keystatus"),
		filepath.Join(dir, "2", "keystatus"),
		filepath.Join(dir, "3", "keystatus"),
		filepath.Join(dir, ".keystatus"),
	}

	i := 0
	locater := LocatorFunc(func(dir string) (string, error) {
		t.Logf("looking for file in %s", dir)
		require.True(t, i <= len(expected)-1, "Got %d directories, only have %d", i+1, len(expected))
		require.Equal(t, expected[i], dir, "Expected %s, got %s", expected[i], dir)
		i++
		return "", errors.New("error: Not found")
	})

	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CONFIG_DIRS", strings.Join(
		[]string{
			filepath.Join(dir, "1"),
			filepath.Join(dir, "2"),
			filepath.Join(dir, "3"),
		},
		fmt.Sprintf("%c", filepath.ListSeparator),
	))

	_, err := LocateRcfile(locater)
	require.Error(t, err)
	require.Equal(t, len(expected), i)

	expected[0] = filepath.Join(dir, ".config", "keystatus")
	t.Setenv("XDG_CONFIG_HOME", "")
	i = 0
	_, err = LocateRcfile(locater)
	require.Error(t, err)
	require.Equal(t, len(expected), i)
}

func TestLocateRcfileYAML(t *testing.T) {
	dir := t.TempDir()

	rcDir := filepath.Join(dir, ".keystatus")
	require.NoError(t, os.MkdirAll(rcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rcDir, "config.yaml"), []byte("{}"), 0o644))

	homedirFunc = func() (string, error) {
		return dir, nil
	}
	t.Cleanup(func() { homedirFunc = homedir })

	// Clear XDG vars so it falls through to ~/.keystatus/
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_DIRS", "")

	file, err := LocateRcfile(DefaultConfigLocator)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(rcDir, "config.yaml"), file)
}
