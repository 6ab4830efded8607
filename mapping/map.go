// Package mapping defines the map queries the exploration planners consume and provides an
// in-memory voxel map implementing them.
package mapping

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/glocal/mapping/skeleton"
	"go.viam.com/glocal/spatialmath"
)

// SubmapID identifies one finalized region of the map.
type SubmapID int

// VoxelIndex stores voxel coordinates in grid axes.
type VoxelIndex struct {
	I, J, K int64
}

// VoxelState is the occupancy classification of a voxel.
type VoxelState int

const (
	// VoxelUnknown voxels were never observed.
	VoxelUnknown VoxelState = iota
	// VoxelFree voxels were observed empty.
	VoxelFree
	// VoxelOccupied voxels were observed occupied.
	VoxelOccupied
)

func (s VoxelState) String() string {
	switch s {
	case VoxelFree:
		return "free"
	case VoxelOccupied:
		return "occupied"
	default:
		return "unknown"
	}
}

// Map is the traversability interface consumed by both planners. Every call must be safe to issue
// concurrently with map updates and must answer from a consistent state for its own duration.
type Map interface {
	VoxelSize() float64

	// IsTraversableInActiveSubmap checks a point against the active region around the robot.
	IsTraversableInActiveSubmap(p r3.Vector) bool
	// IsPoseTraversableInActiveSubmap checks a robot body at p with the given orientation.
	IsPoseTraversableInActiveSubmap(p r3.Vector, orientation quat.Number) bool
	IsLineTraversableInActiveSubmap(a, b r3.Vector) bool

	// IsTraversableInGlobalMap checks a point against the union of all finalized submaps.
	IsTraversableInGlobalMap(p r3.Vector) bool
	IsLineTraversableInGlobalMap(a, b r3.Vector) bool

	SubmapIDsAtPosition(p r3.Vector) []SubmapID
	// DistanceAtPosition returns the distance to the closest obstacle in the active region and
	// whether the position has been observed at all.
	DistanceAtPosition(p r3.Vector) (float64, bool)
}

// VoxelStateMap exposes raw voxel classification, used by sensor models.
type VoxelStateMap interface {
	VoxelSize() float64
	VoxelState(p r3.Vector) VoxelState
	VoxelIndexOf(p r3.Vector) VoxelIndex
	VoxelCenter(idx VoxelIndex) r3.Vector
}

// FinalizedSubmap describes a region frozen by the mapping layer. The skeleton is expressed in the
// submap frame and Pose maps that frame into the mission frame.
type FinalizedSubmap struct {
	ID       SubmapID
	Pose     spatialmath.Pose
	Region   Box
	Skeleton *skeleton.Graph
}

// SubmapListener is notified every time a submap is finalized. Global planners that build on
// submap data implement it.
type SubmapListener interface {
	SubmapFinalized(submap FinalizedSubmap) error
}

// Box is an axis aligned box in the mission frame.
type Box struct {
	Min r3.Vector `json:"min"`
	Max r3.Vector `json:"max"`
}

// NewBox returns the box spanned by two corners given in any order.
func NewBox(a, b r3.Vector) Box {
	return Box{
		Min: r3.Vector{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Max: r3.Vector{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)},
	}
}

// Contains reports whether p lies inside the box, boundary included.
func (b Box) Contains(p r3.Vector) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Expand returns the box grown by margin on every side.
func (b Box) Expand(margin float64) Box {
	m := r3.Vector{X: margin, Y: margin, Z: margin}
	return Box{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// IsEmpty reports whether the box has a negative extent along any axis.
func (b Box) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

func (b Box) String() string {
	return fmt.Sprintf("[%v, %v]", b.Min, b.Max)
}
