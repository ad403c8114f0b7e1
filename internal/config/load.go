package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML file on top of the defaults.
//
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Overrides maps flag names to functions which copy the flag's value into a
// config.
type Overrides map[string]func(cfg *Config)

// LoadWithFlags loads path and then applies the overrides of every flag that
// was set explicitly on fs, so that defaults < file < flags.
func LoadWithFlags(path string, fs *flag.FlagSet, overrides Overrides) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply(cfg)
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for settings that the tools cannot run with.
func (c *Config) Validate() error {
	if c.Weld.Distance < 0 {
		return fmt.Errorf("weld distance must not be negative: %f", c.Weld.Distance)
	}
	if c.Decimate.Distance < 0 {
		return fmt.Errorf("decimate distance must not be negative: %f", c.Decimate.Distance)
	}
	if c.Voxel.Size <= 0 {
		return fmt.Errorf("voxel size must be positive: %f", c.Voxel.Size)
	}
	if c.Voxel.Smoothing < 0 {
		return fmt.Errorf("smoothing iterations must not be negative: %d", c.Voxel.Smoothing)
	}
	if c.Skin.Radius <= 0 {
		return fmt.Errorf("skin radius must be positive: %f", c.Skin.Radius)
	}
	return nil
}

// SaveTo writes the config as YAML, creating parent directories as needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
