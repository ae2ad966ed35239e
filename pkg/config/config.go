// Package config loads editor settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/dukex/operion-canvas/pkg/autosave"
	"github.com/dukex/operion-canvas/pkg/editor"
	"github.com/dukex/operion-canvas/pkg/interaction"
)

// ErrUnknownKeys is returned when the file contains keys the editor does not read.
var ErrUnknownKeys = errors.New("unknown configuration keys")

// Config holds editor settings.
type Config struct {
	Canvas   CanvasConfig   `toml:"canvas"`
	Autosave AutosaveConfig `toml:"autosave"`
	Catalog  CatalogConfig  `toml:"catalog"`
}

// CanvasConfig controls snapping and fitting.
type CanvasConfig struct {
	SnapToGrid bool    `toml:"snap_to_grid"`
	GridSize   float64 `toml:"grid_size"   validate:"gt=0"`
	FitPadding float64 `toml:"fit_padding" validate:"gte=0"`
}

// AutosaveConfig controls the periodic saver.
type AutosaveConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

// CatalogConfig points at node-type catalog files loaded on top of the built-in palette.
type CatalogConfig struct {
	Dir string `toml:"dir"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}

	d.Duration = parsed

	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas:   CanvasConfig{SnapToGrid: true, GridSize: 20},
		Autosave: AutosaveConfig{Enabled: true, Interval: Duration{30 * time.Second}},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data, cfg)
}

// Parse decodes TOML into cfg and validates the result.
func Parse(data []byte, cfg *Config) (*Config, error) {
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}

		sort.Strings(keys)

		return nil, fmt.Errorf("%w: %s", ErrUnknownKeys, strings.Join(keys, ", "))
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Autosave.Enabled && c.Autosave.Interval.Duration < time.Second {
		return fmt.Errorf("invalid configuration: autosave interval %s is below 1s", c.Autosave.Interval)
	}

	return nil
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg *Config) error {
	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	err = toml.NewEncoder(f).Encode(cfg)
	if err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to encode config: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// InteractionSettings projects the canvas section for the interaction machine.
func (c *Config) InteractionSettings() interaction.Settings {
	return interaction.Settings{SnapToGrid: c.Canvas.SnapToGrid, GridSize: c.Canvas.GridSize}
}

// SessionOptions projects the canvas and autosave sections onto an editor session.
// Autosave still needs a store on the session to run.
func (c *Config) SessionOptions() []editor.Option {
	opts := []editor.Option{
		editor.WithSettings(c.InteractionSettings()),
		editor.WithFitPadding(c.Canvas.FitPadding),
	}

	if c.Autosave.Enabled {
		opts = append(opts, editor.WithAutosave(autosave.WithInterval(c.Autosave.Interval.Duration)))
	}

	return opts
}
