// Package config loads the configuration of an exploration run from a JSON or YAML file.
package config

import (
	"go.uber.org/multierr"

	"go.viam.com/glocal/logging"
	"go.viam.com/glocal/mapping"
	"go.viam.com/glocal/motionplan/rhrrt"
	"go.viam.com/glocal/motionplan/skeletonplan"
	"go.viam.com/glocal/sensormodel"
)

// Config is the full configuration of the planning stack. Every section omitted from a file keeps
// its defaults, as does every omitted field of a present section.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel      string                  `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	Map           mapping.VoxelMapConfig  `json:"map" yaml:"map"`
	LocalPlanner  rhrrt.Config            `json:"local_planner" yaml:"local_planner"`
	GlobalPlanner skeletonplan.Config     `json:"global_planner" yaml:"global_planner"`
	Lidar         sensormodel.LidarConfig `json:"lidar" yaml:"lidar"`

	// ConfigFilePath is the file the config was read from, if any.
	ConfigFilePath string `json:"-" yaml:"-"`
}

// DefaultConfig returns a configuration with every section at its defaults.
func DefaultConfig() *Config {
	return &Config{
		Map:           mapping.DefaultVoxelMapConfig(),
		LocalPlanner:  rhrrt.DefaultConfig(),
		GlobalPlanner: skeletonplan.DefaultConfig(),
		Lidar:         sensormodel.DefaultLidarConfig(),
	}
}

// Validate returns every violation found across all sections.
func (cfg *Config) Validate() error {
	var err error
	if cfg.LogLevel != "" {
		if _, lErr := logging.LevelFromString(cfg.LogLevel); lErr != nil {
			err = multierr.Append(err, lErr)
		}
	}
	return multierr.Combine(
		err,
		cfg.Map.Validate("map"),
		cfg.LocalPlanner.Validate("local_planner"),
		cfg.GlobalPlanner.Validate("global_planner"),
		cfg.Lidar.Validate("lidar"),
	)
}

// Level returns the configured log level, info if unset or invalid.
func (cfg *Config) Level() logging.Level {
	level, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}
