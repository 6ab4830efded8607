// Package spatialmath defines spatial mathematical operations used by the planners: poses of the
// robot and rigid transforms between submap frames and the common mission frame.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a robot pose restricted to a position and a heading about the z axis. Roll and pitch are
// never constrained by the planners.
type Pose struct {
	Position r3.Vector `json:"position"`
	Yaw      float64   `json:"yaw"`
}

// NewPose returns a pose at the given position with the given yaw in radians.
func NewPose(position r3.Vector, yaw float64) Pose {
	return Pose{Position: position, Yaw: yaw}
}

// NewZeroPose returns a pose at the origin facing +x.
func NewZeroPose() Pose {
	return Pose{}
}

// Orientation returns the unit quaternion describing the pose's heading.
func (p Pose) Orientation() quat.Number {
	return YawToQuat(p.Yaw)
}

// Distance returns the euclidean distance between the positions of two poses.
func (p Pose) Distance(other Pose) float64 {
	return p.Position.Distance(other.Position)
}

// Transform returns the pose expressed through the given rigid transform. The resulting yaw is the
// heading of the rotated x axis projected onto the xy plane.
func (p Pose) Transform(t Transform) Pose {
	xAxis := t.Rotate(r3.Vector{X: math.Cos(p.Yaw), Y: math.Sin(p.Yaw)})
	return Pose{Position: t.Apply(p.Position), Yaw: math.Atan2(xAxis.Y, xAxis.X)}
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f | yaw %.3f)", p.Position.X, p.Position.Y, p.Position.Z, p.Yaw)
}

// PoseAlmostEqual returns whether two poses coincide within epsilon in position and yaw.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Position, b.Position, epsilon) && math.Abs(normalizeAngle(a.Yaw-b.Yaw)) < epsilon
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// normalizeAngle maps an angle into [-pi, pi).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
