// Package config loads the screensaver settings.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Bounds of the effect cycle interval, in seconds.
const (
	MinIntervalSeconds = 1
	MaxIntervalSeconds = 300
)

// Config holds all settings.
type Config struct {
	Cycle     CycleConfig     `yaml:"cycle"`
	Render    RenderConfig    `yaml:"render"`
	Window    WindowConfig    `yaml:"window"`
	Effects   EffectsConfig   `yaml:"effects"`
	Record    RecordConfig    `yaml:"record"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CycleConfig controls effect switching.
type CycleConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	StartIndex      int `yaml:"start_index"`
}

// RenderConfig controls the live renderer.
type RenderConfig struct {
	FPS          int    `yaml:"fps"`
	Profile      string `yaml:"profile"`
	Software     bool   `yaml:"software"`
	DebugOverlay bool   `yaml:"debug_overlay"`
}

// WindowConfig sizes the preview window.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// EffectsConfig locates effect sources.
type EffectsConfig struct {
	Dir string `yaml:"dir"`
}

// RecordConfig controls offline rendering to a video file.
type RecordConfig struct {
	Output          string  `yaml:"output"`
	DurationSeconds float64 `yaml:"duration_seconds"`
	FPS             int     `yaml:"fps"`
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	Codec           string  `yaml:"codec"`
	FFmpegPath      string  `yaml:"ffmpeg_path"`
}

// TelemetryConfig controls per-effect statistics output.
type TelemetryConfig struct {
	CSVPath string `yaml:"csv_path"`
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate clamps numeric settings into range and rejects unknown names.
func (c *Config) Validate() error {
	c.Cycle.IntervalSeconds = clamp(c.Cycle.IntervalSeconds, MinIntervalSeconds, MaxIntervalSeconds)
	c.Render.FPS = atLeast(c.Render.FPS, 1)
	c.Record.FPS = atLeast(c.Record.FPS, 1)
	c.Window.Width = atLeast(c.Window.Width, 1)
	c.Window.Height = atLeast(c.Window.Height, 1)
	c.Record.Width = atLeast(c.Record.Width, 1)
	c.Record.Height = atLeast(c.Record.Height, 1)
	if c.Record.DurationSeconds < 0 {
		c.Record.DurationSeconds = 0
	}

	switch c.Render.Profile {
	case "core", "angle":
	default:
		return fmt.Errorf("render.profile must be core or angle, got %q", c.Render.Profile)
	}
	return nil
}

// Interval returns the time spent on each effect.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Cycle.IntervalSeconds) * time.Second
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func atLeast(v, lo int) int {
	if v < lo {
		return lo
	}
	return v
}
