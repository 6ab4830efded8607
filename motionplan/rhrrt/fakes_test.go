package rhrrt

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/glocal/mapping"
	"go.viam.com/glocal/motionplan"
	"go.viam.com/glocal/spatialmath"
)

// openMap is traversable everywhere except where blocked says otherwise.
type openMap struct {
	voxelSize float64
	blocked   func(r3.Vector) bool
}

func (m *openMap) VoxelSize() float64 { return m.voxelSize }

func (m *openMap) IsTraversableInActiveSubmap(p r3.Vector) bool {
	return m.blocked == nil || !m.blocked(p)
}

func (m *openMap) IsPoseTraversableInActiveSubmap(p r3.Vector, _ quat.Number) bool {
	return m.IsTraversableInActiveSubmap(p)
}

func (m *openMap) IsLineTraversableInActiveSubmap(a, b r3.Vector) bool {
	for _, p := range pathPoints(a, b, m.voxelSize) {
		if !m.IsTraversableInActiveSubmap(p) {
			return false
		}
	}
	return true
}

func (m *openMap) IsTraversableInGlobalMap(p r3.Vector) bool { return m.IsTraversableInActiveSubmap(p) }

func (m *openMap) IsLineTraversableInGlobalMap(a, b r3.Vector) bool {
	return m.IsLineTraversableInActiveSubmap(a, b)
}

func (m *openMap) SubmapIDsAtPosition(r3.Vector) []mapping.SubmapID { return nil }

func (m *openMap) DistanceAtPosition(r3.Vector) (float64, bool) { return math.Inf(1), true }

type gainFunc func(spatialmath.Pose) float64

func (f gainFunc) ComputeVisibleUnknownVolume(pose spatialmath.Pose) float64 { return f(pose) }

func (f gainFunc) VisibleUnknownVoxels(pose spatialmath.Pose) []mapping.VoxelIndex {
	n := int(f(pose))
	out := make([]mapping.VoxelIndex, n)
	for i := range out {
		out[i] = mapping.VoxelIndex{I: int64(i)}
	}
	return out
}

// teleportingRobot reaches every requested waypoint instantly.
type teleportingRobot struct {
	pose      spatialmath.Pose
	reached   func() bool
	waypoints []motionplan.WayPoint
	onRequest func(motionplan.WayPoint)
}

func (r *teleportingRobot) CurrentPose() spatialmath.Pose { return r.pose }

func (r *teleportingRobot) TargetIsReached() bool {
	return r.reached == nil || r.reached()
}

func (r *teleportingRobot) RequestWayPoint(wp motionplan.WayPoint) {
	r.waypoints = append(r.waypoints, wp)
	r.pose = wp
	if r.onRequest != nil {
		r.onRequest(wp)
	}
}

type countingRecorder struct {
	updates   [][3]int
	waypoints int
}

func (r *countingRecorder) TreeUpdated(added, pruned, total int) {
	r.updates = append(r.updates, [3]int{added, pruned, total})
}

func (r *countingRecorder) WaypointSelected() { r.waypoints++ }

func (r *countingRecorder) GlobalSearchFinished(int, error) {}
