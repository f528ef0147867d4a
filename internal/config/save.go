package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileName is the file Load and Save use inside ConfigDir.
const configFileName = "config.yaml"

// fileHeader marks saved files as generated so hand edits stand out in review.
var fileHeader = []byte("# SkelView configuration\n")

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), configFileName))
}

// SaveTo writes the config to a specific path, creating parent directories
// as needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(fileHeader, data...), 0644)
}
