package rhrrt

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	defaultLocalSamplingRadius       = 1.5
	defaultGlobalSamplingRadius      = 20.0
	defaultMinLocalPoints            = 5
	defaultMinPathLength             = 0.5
	defaultMinSamplingDistance       = 0.5
	defaultMaxPathLength             = 2.0
	defaultPathCroppingLength        = 0.2
	defaultMaxNumberOfNeighbors      = 20
	defaultMaximumRewiringIterations = 100
	defaultRandomSeed                = 1
)

// Config holds the sampling, connection and rewiring parameters of the planner. Lengths are in
// map units.
type Config struct {
	// LocalSamplingRadius is used while the quota of samples near the root is unmet.
	LocalSamplingRadius  float64 `json:"local_sampling_radius" yaml:"local_sampling_radius"`
	GlobalSamplingRadius float64 `json:"global_sampling_radius" yaml:"global_sampling_radius"`
	MinLocalPoints       int     `json:"min_local_points" yaml:"min_local_points"`

	MinPathLength       float64 `json:"min_path_length" yaml:"min_path_length"`
	MinSamplingDistance float64 `json:"min_sampling_distance" yaml:"min_sampling_distance"`
	MaxPathLength       float64 `json:"max_path_length" yaml:"max_path_length"`
	// PathCroppingLength is the clearance kept between a sample and the first blocked point of its ray.
	PathCroppingLength float64 `json:"path_cropping_length" yaml:"path_cropping_length"`

	MaxNumberOfNeighbors      int `json:"max_number_of_neighbors" yaml:"max_number_of_neighbors"`
	MaximumRewiringIterations int `json:"maximum_rewiring_iterations" yaml:"maximum_rewiring_iterations"`

	RandomSeed int64 `json:"random_seed" yaml:"random_seed"`
}

// DefaultConfig returns the default planner configuration.
func DefaultConfig() Config {
	return Config{
		LocalSamplingRadius:       defaultLocalSamplingRadius,
		GlobalSamplingRadius:      defaultGlobalSamplingRadius,
		MinLocalPoints:            defaultMinLocalPoints,
		MinPathLength:             defaultMinPathLength,
		MinSamplingDistance:       defaultMinSamplingDistance,
		MaxPathLength:             defaultMaxPathLength,
		PathCroppingLength:        defaultPathCroppingLength,
		MaxNumberOfNeighbors:      defaultMaxNumberOfNeighbors,
		MaximumRewiringIterations: defaultMaximumRewiringIterations,
		RandomSeed:                defaultRandomSeed,
	}
}

// Validate returns every violation found in the configuration.
func (cfg *Config) Validate(path string) error {
	var err error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			err = multierr.Append(err, errors.Errorf("%s: "+format, append([]interface{}{path}, args...)...))
		}
	}
	check(cfg.MaxPathLength > 0, "max_path_length must be positive, got %f", cfg.MaxPathLength)
	check(cfg.PathCroppingLength > 0, "path_cropping_length must be positive, got %f", cfg.PathCroppingLength)
	check(cfg.MaxNumberOfNeighbors > 0, "max_number_of_neighbors must be positive, got %d", cfg.MaxNumberOfNeighbors)
	check(cfg.MaximumRewiringIterations > 0,
		"maximum_rewiring_iterations must be positive, got %d", cfg.MaximumRewiringIterations)
	check(cfg.MinPathLength >= 0 && cfg.MinPathLength <= cfg.MaxPathLength,
		"min_path_length %f must be in [0, max_path_length]", cfg.MinPathLength)
	check(cfg.MinSamplingDistance >= 0, "min_sampling_distance cannot be negative, got %f", cfg.MinSamplingDistance)
	check(cfg.LocalSamplingRadius > 0, "local_sampling_radius must be positive, got %f", cfg.LocalSamplingRadius)
	check(cfg.GlobalSamplingRadius > 0, "global_sampling_radius must be positive, got %f", cfg.GlobalSamplingRadius)
	check(cfg.MinLocalPoints >= 0, "min_local_points cannot be negative, got %d", cfg.MinLocalPoints)
	return err
}
