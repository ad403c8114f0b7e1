// Package config holds the settings shared by the command line tools.
package config

import (
	"github.com/unixpickle/skinproxy/clustermesh"
	"github.com/unixpickle/skinproxy/skinmap"
)

// Config holds all tool settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Weld     WeldConfig     `yaml:"weld"`
	Decimate DecimateConfig `yaml:"decimate"`
	Voxel    VoxelConfig    `yaml:"voxel"`
	Skin     SkinConfig     `yaml:"skin"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// WeldConfig controls the merging of nearby clusters.
type WeldConfig struct {
	Distance         float64 `yaml:"distance"`
	WindingThreshold float64 `yaml:"winding_threshold"`
}

// DecimateConfig controls edge collapse simplification.
type DecimateConfig struct {
	Distance         float64 `yaml:"distance"`
	WindingThreshold float64 `yaml:"winding_threshold"`
}

// VoxelConfig controls surface reconstruction.
type VoxelConfig struct {
	Size            float64 `yaml:"size"`
	Smoothing       int     `yaml:"smoothing"`
	RecordTriangles bool    `yaml:"record_triangles"`
}

// SkinConfig controls how source vertices are bound to clusters.
type SkinConfig struct {
	Radius        float64 `yaml:"radius"`
	Falloff       float64 `yaml:"falloff"`
	MaxInfluences int     `yaml:"max_influences"`
}

// Params converts the settings for skinmap.MapClustersToVertices.
func (s SkinConfig) Params() skinmap.Params {
	return skinmap.Params{
		Radius:        s.Radius,
		Falloff:       s.Falloff,
		MaxInfluences: s.MaxInfluences,
	}
}

// Default returns the settings used when no file or flag overrides them.
func Default() *Config {
	skin := skinmap.DefaultParams()
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Weld: WeldConfig{
			Distance:         1e-4,
			WindingThreshold: clustermesh.CollapseWindingThreshold,
		},
		Decimate: DecimateConfig{
			Distance:         0.05,
			WindingThreshold: clustermesh.CollapseWindingThreshold,
		},
		Voxel: VoxelConfig{
			Size:      0.02,
			Smoothing: 3,
		},
		Skin: SkinConfig{
			Radius:        skin.Radius,
			Falloff:       skin.Falloff,
			MaxInfluences: skin.MaxInfluences,
		},
	}
}
