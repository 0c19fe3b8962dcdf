// Package config loads and saves the xyscope YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/peragwin/xyscope/audio/decode"
	"github.com/peragwin/xyscope/scope"
)

// Config is the whole configuration file.
type Config struct {
	Audio   AudioConfig         `yaml:"audio"`
	Files   decode.SourceConfig `yaml:"files"`
	Scope   scope.Parameters    `yaml:"scope"`
	Control ControlConfig       `yaml:"control"`
	MQTT    MQTTConfig          `yaml:"mqtt"`
	Grid    GridConfig          `yaml:"grid"`
	Window  Window              `yaml:"window"`
}

// AudioConfig selects the capture device. An empty Device is the default
// input.
type AudioConfig struct {
	Device     string  `yaml:"device"`
	BlockSize  int     `yaml:"block_size"`
	Channels   int     `yaml:"channels"`
	SampleRate float64 `yaml:"sample_rate"`
	// Play sends the audio to the default output device as well.
	Play bool `yaml:"play"`
}

// ControlConfig sets up the HTTP control API. An empty Listen disables it.
type ControlConfig struct {
	Listen    string `yaml:"listen"`
	Advertise bool   `yaml:"advertise"`
	// StatusMs is the websocket status period.
	StatusMs int `yaml:"status_ms"`
}

// MQTTConfig sets up status publishing. An empty Broker disables it.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	PeriodMs int    `yaml:"period_ms"`
}

// GridConfig mirrors the scope onto an LED grid. Driver "skgrid" (the
// default) sends frames to the controller at Remote; "panel" drives a matrix
// attached to a Raspberry Pi.
type GridConfig struct {
	Driver    string `yaml:"driver"`
	Remote    string `yaml:"remote"`
	Rows      int    `yaml:"rows"`
	Columns   int    `yaml:"columns"`
	FrameRate int    `yaml:"frame_rate"`
	Transpose bool   `yaml:"transpose"`
	PanelType string `yaml:"panel_type"`
}

// Enabled reports whether a grid is configured: a remote controller, or a
// driver that needs none.
func (g GridConfig) Enabled() bool {
	if g.Driver == "" || g.Driver == "skgrid" {
		return g.Remote != ""
	}
	return true
}

// Window is the persisted view geometry.
type Window struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Valid reports whether w describes a usable window.
func (w Window) Valid() bool {
	return w.Width > 0 && w.Height > 0
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{BlockSize: 512, Channels: 2, SampleRate: 44100},
		Files: decode.SourceConfig{BlockSize: 512},
		Scope: *scope.DefaultParameters(),
		Control: ControlConfig{
			StatusMs: 250,
		},
		MQTT: MQTTConfig{
			Topic:    "xyscope/status",
			PeriodMs: 1000,
		},
		Grid: GridConfig{
			Rows:      16,
			Columns:   16,
			FrameRate: 30,
		},
		Window: Window{Width: 550, Height: 550},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cfg.Scope.Validate(); err != nil {
		return nil, fmt.Errorf("scope: %w", err)
	}
	if !cfg.Window.Valid() {
		cfg.Window = Default().Window
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveWindow updates only the window geometry in path, keeping the rest of
// the file as loaded.
func SaveWindow(path string, w Window) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	cfg.Window = w
	return Save(path, cfg)
}
