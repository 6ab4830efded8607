package sensormodel

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/glocal/mapping"
	"go.viam.com/glocal/spatialmath"
)

const (
	defaultRayLength            = 5.0
	defaultVerticalFOV          = 30.0
	defaultHorizontalFOV        = 360.0
	defaultVerticalResolution   = 16
	defaultHorizontalResolution = 64
	defaultDownsamplingFactor   = 1.0
)

// LidarConfig describes a rotating lidar. Field of view angles are in degrees.
type LidarConfig struct {
	RayLength     float64 `json:"ray_length" yaml:"ray_length"`
	VerticalFOV   float64 `json:"vertical_fov" yaml:"vertical_fov"`
	HorizontalFOV float64 `json:"horizontal_fov" yaml:"horizontal_fov"`
	// VerticalResolution and HorizontalResolution are ray counts.
	VerticalResolution   int `json:"vertical_resolution" yaml:"vertical_resolution"`
	HorizontalResolution int `json:"horizontal_resolution" yaml:"horizontal_resolution"`
	// RayStep is the marching distance along each ray, zero means one voxel.
	RayStep            float64 `json:"ray_step" yaml:"ray_step"`
	DownsamplingFactor float64 `json:"downsampling_factor" yaml:"downsampling_factor"`
	// Offset is the sensor position in the robot body frame.
	Offset r3.Vector `json:"offset" yaml:"offset"`
}

// DefaultLidarConfig returns a 16 beam lidar configuration.
func DefaultLidarConfig() LidarConfig {
	return LidarConfig{
		RayLength:            defaultRayLength,
		VerticalFOV:          defaultVerticalFOV,
		HorizontalFOV:        defaultHorizontalFOV,
		VerticalResolution:   defaultVerticalResolution,
		HorizontalResolution: defaultHorizontalResolution,
		DownsamplingFactor:   defaultDownsamplingFactor,
	}
}

// Validate returns every violation found in the configuration.
func (cfg *LidarConfig) Validate(path string) error {
	var err error
	if cfg.RayLength <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: ray_length must be positive, got %f", path, cfg.RayLength))
	}
	if cfg.VerticalFOV < 0 || cfg.VerticalFOV > 180 {
		err = multierr.Append(err, errors.Errorf("%s: vertical_fov must be in [0, 180], got %f", path, cfg.VerticalFOV))
	}
	if cfg.HorizontalFOV <= 0 || cfg.HorizontalFOV > 360 {
		err = multierr.Append(err, errors.Errorf("%s: horizontal_fov must be in (0, 360], got %f", path, cfg.HorizontalFOV))
	}
	if cfg.VerticalResolution <= 0 || cfg.HorizontalResolution <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: resolutions must be positive, got %d x %d",
			path, cfg.VerticalResolution, cfg.HorizontalResolution))
	}
	if cfg.RayStep < 0 {
		err = multierr.Append(err, errors.Errorf("%s: ray_step cannot be negative, got %f", path, cfg.RayStep))
	}
	if cfg.DownsamplingFactor < 1 {
		err = multierr.Append(err, errors.Errorf("%s: downsampling_factor must be at least 1, got %f", path, cfg.DownsamplingFactor))
	}
	return err
}

// Lidar casts rays through a voxel map and collects the unknown voxels they pass before hitting an
// obstacle.
type Lidar struct {
	cfg        LidarConfig
	voxels     mapping.VoxelStateMap
	step       float64
	directions []r3.Vector
}

// NewLidar returns a lidar model reading voxels from the given map.
func NewLidar(cfg LidarConfig, voxels mapping.VoxelStateMap) (*Lidar, error) {
	if err := cfg.Validate("lidar"); err != nil {
		return nil, err
	}
	step := cfg.RayStep
	if step == 0 {
		step = voxels.VoxelSize()
	}
	return &Lidar{cfg: cfg, voxels: voxels, step: step, directions: rayDirections(cfg)}, nil
}

// rayDirections returns the unit rays in the sensor frame.
func rayDirections(cfg LidarConfig) []r3.Vector {
	vRes := max(1, int(float64(cfg.VerticalResolution)/cfg.DownsamplingFactor))
	hRes := max(1, int(float64(cfg.HorizontalResolution)/cfg.DownsamplingFactor))
	vFOV := cfg.VerticalFOV * math.Pi / 180
	hFOV := cfg.HorizontalFOV * math.Pi / 180

	elevations := make([]float64, vRes)
	if vRes > 1 {
		for i := range elevations {
			elevations[i] = -vFOV/2 + float64(i)*vFOV/float64(vRes-1)
		}
	}
	// a full revolution would repeat its first ray at the end
	hSpan := float64(hRes)
	if cfg.HorizontalFOV < 360 && hRes > 1 {
		hSpan = float64(hRes - 1)
	}
	out := make([]r3.Vector, 0, vRes*hRes)
	for _, el := range elevations {
		for j := 0; j < hRes; j++ {
			az := -hFOV/2 + float64(j)*hFOV/hSpan
			if hRes == 1 {
				az = 0
			}
			out = append(out, r3.Vector{
				X: math.Cos(el) * math.Cos(az),
				Y: math.Cos(el) * math.Sin(az),
				Z: math.Sin(el),
			})
		}
	}
	return out
}

// ComputeVisibleUnknownVolume implements Model.
func (l *Lidar) ComputeVisibleUnknownVolume(pose spatialmath.Pose) float64 {
	return float64(len(l.castRays(pose)))
}

// VisibleUnknownVoxels implements Model.
func (l *Lidar) VisibleUnknownVoxels(pose spatialmath.Pose) []mapping.VoxelIndex {
	seen := l.castRays(pose)
	out := make([]mapping.VoxelIndex, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.I != b.I {
			return a.I < b.I
		}
		if a.J != b.J {
			return a.J < b.J
		}
		return a.K < b.K
	})
	return out
}

func (l *Lidar) castRays(pose spatialmath.Pose) map[mapping.VoxelIndex]struct{} {
	body := spatialmath.NewTransformFromPose(pose)
	origin := body.Apply(l.cfg.Offset)
	seen := map[mapping.VoxelIndex]struct{}{}
	for _, dir := range l.directions {
		dir = body.Rotate(dir)
		for d := l.step; d <= l.cfg.RayLength; d += l.step {
			p := origin.Add(dir.Mul(d))
			state := l.voxels.VoxelState(p)
			if state == mapping.VoxelOccupied {
				break
			}
			if state == mapping.VoxelUnknown {
				seen[l.voxels.VoxelIndexOf(p)] = struct{}{}
			}
		}
	}
	return seen
}
