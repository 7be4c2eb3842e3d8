// Package config loads the picker's settings from YAML and flags.
package config

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrInvalidViewport = errors.New("invalid viewport size")
	ErrInvalidScale    = errors.New("minimum scale must be positive")
	ErrInvalidColor    = errors.New("color component outside [0, 1]")
	ErrMissingMesh     = errors.New("picker mesh name is empty")
)

// Config holds all picker settings.
type Config struct {
	Viewport ViewportConfig `yaml:"viewport"`
	Picker   PickerConfig   `yaml:"picker"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ViewportConfig holds window and camera settings.
type ViewportConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOVDegrees float64 `yaml:"fov_degrees"`
}

// Color is an RGBA color with components in [0, 1].
type Color [4]float32

// PickerConfig selects the reference mesh and how it is drawn.
type PickerConfig struct {
	// Asset is a YAML mesh document or a mesh bundle. "builtin" selects
	// the embedded workplanes.
	Asset        string  `yaml:"asset"`
	Mesh         string  `yaml:"mesh"`
	DoubleSided  bool    `yaml:"double_sided"`
	MinimumScale float64 `yaml:"minimum_scale"`
	PassiveColor Color   `yaml:"passive_color,flow"`
	ActiveColor  Color   `yaml:"active_color,flow"`
	OutlineColor Color   `yaml:"outline_color,flow"`
	// Watch reloads the asset when the file changes on disk.
	Watch bool `yaml:"watch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the built-in workplanes selected.
func Default() *Config {
	return &Config{
		Viewport: ViewportConfig{
			Width:      1280,
			Height:     720,
			VSync:      true,
			FOVDegrees: 45,
		},
		Picker: PickerConfig{
			Asset:        "builtin",
			Mesh:         "workplanes",
			DoubleSided:  true,
			MinimumScale: 3,
			PassiveColor: Color{0.45, 0.6, 0.85, 0.15},
			ActiveColor:  Color{1, 0.6, 0.2, 0.45},
			OutlineColor: Color{0.9, 0.9, 0.9, 0.6},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("%dx%d: %w", c.Viewport.Width, c.Viewport.Height, ErrInvalidViewport)
	}
	if c.Picker.Mesh == "" {
		return ErrMissingMesh
	}
	if !(c.Picker.MinimumScale > 0) {
		return fmt.Errorf("%v: %w", c.Picker.MinimumScale, ErrInvalidScale)
	}
	for name, col := range map[string]Color{
		"passive_color": c.Picker.PassiveColor,
		"active_color":  c.Picker.ActiveColor,
		"outline_color": c.Picker.OutlineColor,
	} {
		for _, v := range col {
			if v < 0 || v > 1 {
				return fmt.Errorf("%s %v: %w", name, col, ErrInvalidColor)
			}
		}
	}
	return nil
}
