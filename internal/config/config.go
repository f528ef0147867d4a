// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Debug   DebugConfig   `yaml:"debug"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	VSync  bool `yaml:"vsync"`
}

// ViewerConfig holds viewport and reload settings.
type ViewerConfig struct {
	Background    string        `yaml:"background"` // Hex RGB, e.g. "202020"
	Zoom          float32       `yaml:"zoom"`
	BoneWidth     float32       `yaml:"bone_width"`
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// DebugConfig holds the startup state of the debug overlays.
type DebugConfig struct {
	Bones         bool `yaml:"bones"`
	Regions       bool `yaml:"regions"`
	MeshHull      bool `yaml:"mesh_hull"`
	MeshTriangles bool `yaml:"mesh_triangles"`
	Clipping      bool `yaml:"clipping"`
	Paths         bool `yaml:"paths"`
	BoundingBoxes bool `yaml:"bounding_boxes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 800,
			VSync:  true,
		},
		Viewer: ViewerConfig{
			Background:    "202020",
			Zoom:          1.0,
			BoneWidth:     4.0,
			Watch:         false,
			WatchDebounce: 300 * time.Millisecond,
		},
		Debug: DebugConfig{
			Bones:         true,
			Regions:       false,
			MeshHull:      false,
			MeshTriangles: false,
			Clipping:      false,
			Paths:         false,
			BoundingBoxes: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
