package skeletonplan

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	defaultNClosestStartVertices = 5
	defaultNClosestEndVertices   = 30
	defaultMaxIterations         = 5000
	defaultBridgingMaxEdges      = 3
	defaultBridgingNNearest      = 3
	defaultMaxLinkingDistance    = 2.0
)

// Config holds the search parameters of the global planner.
type Config struct {
	// NClosestStartVertices is the number of entry vertices seeding the search.
	NClosestStartVertices int `json:"n_closest_start_vertices" yaml:"n_closest_start_vertices"`
	// NClosestEndVertices is the number of exit vertices allowed to link to the goal.
	NClosestEndVertices int `json:"n_closest_end_vertices" yaml:"n_closest_end_vertices"`
	MaxIterations       int `json:"max_iterations" yaml:"max_iterations"`

	// BridgingMaxEdges is the largest vertex degree for which links into other submaps are searched.
	BridgingMaxEdges   int     `json:"bridging_max_edges" yaml:"bridging_max_edges"`
	BridgingNNearest   int     `json:"bridging_n_nearest" yaml:"bridging_n_nearest"`
	MaxLinkingDistance float64 `json:"max_linking_distance" yaml:"max_linking_distance"`
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() Config {
	return Config{
		NClosestStartVertices: defaultNClosestStartVertices,
		NClosestEndVertices:   defaultNClosestEndVertices,
		MaxIterations:         defaultMaxIterations,
		BridgingMaxEdges:      defaultBridgingMaxEdges,
		BridgingNNearest:      defaultBridgingNNearest,
		MaxLinkingDistance:    defaultMaxLinkingDistance,
	}
}

// Validate returns every violation found in the configuration.
func (cfg *Config) Validate(path string) error {
	var err error
	if cfg.NClosestStartVertices <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: n_closest_start_vertices must be positive, got %d",
			path, cfg.NClosestStartVertices))
	}
	if cfg.NClosestEndVertices <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: n_closest_end_vertices must be positive, got %d",
			path, cfg.NClosestEndVertices))
	}
	if cfg.MaxIterations <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: max_iterations must be positive, got %d", path, cfg.MaxIterations))
	}
	if cfg.BridgingMaxEdges < 0 || cfg.BridgingNNearest < 0 {
		err = multierr.Append(err, errors.Errorf("%s: bridging parameters cannot be negative", path))
	}
	if cfg.MaxLinkingDistance < 0 {
		err = multierr.Append(err, errors.Errorf("%s: max_linking_distance cannot be negative, got %f",
			path, cfg.MaxLinkingDistance))
	}
	return err
}
