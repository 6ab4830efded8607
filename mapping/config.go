package mapping

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	defaultVoxelSize            = 0.2
	defaultTraversabilityRadius = 0.3
	defaultClearingRadius       = 0.5
	defaultMaxDistance          = 2.0
)

// VoxelMapConfig configures a VoxelMap.
type VoxelMapConfig struct {
	VoxelSize float64 `json:"voxel_size" yaml:"voxel_size"`
	// TraversabilityRadius is the minimum distance to obstacles of a traversable point.
	TraversabilityRadius float64 `json:"traversability_radius" yaml:"traversability_radius"`
	// ClearingRadius is the distance around the robot in which unobserved space counts as free.
	ClearingRadius float64 `json:"clearing_radius" yaml:"clearing_radius"`
	// MaxDistance truncates obstacle distance queries.
	MaxDistance float64 `json:"max_distance" yaml:"max_distance"`
	// Bounds is the region of interest, nil means unbounded.
	Bounds *Box `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

// DefaultVoxelMapConfig returns the default map configuration.
func DefaultVoxelMapConfig() VoxelMapConfig {
	return VoxelMapConfig{
		VoxelSize:            defaultVoxelSize,
		TraversabilityRadius: defaultTraversabilityRadius,
		ClearingRadius:       defaultClearingRadius,
		MaxDistance:          defaultMaxDistance,
	}
}

// Validate returns every violation found in the configuration.
func (cfg *VoxelMapConfig) Validate(path string) error {
	var err error
	if cfg.VoxelSize <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: voxel_size must be positive, got %f", path, cfg.VoxelSize))
	}
	if cfg.TraversabilityRadius <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: traversability_radius must be positive, got %f", path, cfg.TraversabilityRadius))
	}
	if cfg.ClearingRadius < 0 {
		err = multierr.Append(err, errors.Errorf("%s: clearing_radius cannot be negative, got %f", path, cfg.ClearingRadius))
	}
	if cfg.MaxDistance < cfg.TraversabilityRadius {
		err = multierr.Append(err, errors.Errorf("%s: max_distance %f is smaller than traversability_radius %f",
			path, cfg.MaxDistance, cfg.TraversabilityRadius))
	}
	if cfg.Bounds != nil && cfg.Bounds.IsEmpty() {
		err = multierr.Append(err, errors.Errorf("%s: bounds %v are empty", path, *cfg.Bounds))
	}
	return err
}
