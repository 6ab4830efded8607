// Package sensormodel estimates the information a candidate view would gather.
package sensormodel

import (
	"go.viam.com/glocal/mapping"
	"go.viam.com/glocal/spatialmath"
)

// Model computes which unknown voxels are visible from a pose.
type Model interface {
	// ComputeVisibleUnknownVolume returns the gain of a view, the number of distinct unknown
	// voxels it would observe.
	ComputeVisibleUnknownVolume(pose spatialmath.Pose) float64
	// VisibleUnknownVoxels returns the unknown voxels visible from pose ordered by index.
	VisibleUnknownVoxels(pose spatialmath.Pose) []mapping.VoxelIndex
}
