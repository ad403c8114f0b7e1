package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/skinproxy/clustermesh"
	"github.com/unixpickle/skinproxy/skinmap"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, clustermesh.CollapseWindingThreshold, cfg.Weld.WindingThreshold)
	assert.Equal(t, clustermesh.CollapseWindingThreshold, cfg.Decimate.WindingThreshold)
	assert.Equal(t, skinmap.DefaultParams(), cfg.Skin.Params())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "decimate:\n  distance: 0.2\nvoxel:\n  smoothing: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Decimate.Distance)
	assert.Equal(t, 5, cfg.Voxel.Smoothing)

	// Fields missing from the file keep their defaults.
	assert.Equal(t, Default().Voxel.Size, cfg.Voxel.Size)
	assert.Equal(t, Default().Decimate.WindingThreshold, cfg.Decimate.WindingThreshold)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("voxel: [1, 2"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("voxel:\n  size: 0\n"), 0644))
	_, err = Load(invalid)
	assert.Error(t, err)
}

func TestLoadWithFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weld:\n  distance: 0.5\nskin:\n  radius: 2\n"), 0644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	weld := fs.Float64("weld", 0.01, "")
	radius := fs.Float64("radius", 0.1, "")
	require.NoError(t, fs.Parse([]string{"-weld", "0.3"}))

	cfg, err := LoadWithFlags(path, fs, Overrides{
		"weld":   func(c *Config) { c.Weld.Distance = *weld },
		"radius": func(c *Config) { c.Skin.Radius = *radius },
	})
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Weld.Distance)
	// Unset flags do not replace file values with their defaults.
	assert.Equal(t, 2.0, cfg.Skin.Radius)
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Voxel.RecordTriangles = true
	cfg.Logging.LogFile = "proxy.log"
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
